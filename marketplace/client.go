package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/network"
)

// ErrNotFound is returned when the gallery knows no version of an extension.
var ErrNotFound = errors.New("extension not found on the marketplace")

const (
	// DefaultGalleryURL is the public extension gallery query endpoint.
	DefaultGalleryURL = "https://marketplace.visualstudio.com/_apis/public/gallery/extensionquery"
	// DefaultClientID is sent as X-Market-Client-Id.
	DefaultClientID = "vscode-marketplace-extension-browser"

	filterTarget        = 8
	filterExtensionName = 7
	flagIncludeVersions = 0x200

	versionLifetime = time.Hour
)

// Package is a resolved extension: its manifest and where its files live.
type Package struct {
	Coordinate backing.Coordinate
	Manifest   *Manifest
	Raw        []byte
	// Root is the directory holding package.json and the rest of the files.
	Root backing.Location
	// Source reads locations below Root.
	Source backing.Source
	// Installed is true when the package came from the local registry.
	Installed bool
}

// Options configure a Client. Zero values select the public marketplace.
type Options struct {
	HTTP            *http.Client
	GalleryURL      string
	ClientID        string
	PackageTemplate string
	// Source reads package files. Defaults to HTTP with the client name header.
	Source backing.Source
	// CachePath persists latest versions for an hour. Empty disables the cache.
	CachePath string
}

// Client resolves extensions that are not installed locally.
type Client struct {
	http       *http.Client
	galleryURL string
	clientID   string
	template   string
	source     backing.Source
	versions   *gache.Cache[*versionData]
	mu         sync.Mutex
}

type versionData struct {
	Versions map[string]string `json:"versions"`
}

// New returns a client for the given options.
func New(options Options) *Client {
	c := &Client{
		http:       options.HTTP,
		galleryURL: options.GalleryURL,
		clientID:   options.ClientID,
		template:   options.PackageTemplate,
		source:     options.Source,
	}

	if c.http == nil {
		c.http = network.Client
	}
	if c.galleryURL == "" {
		c.galleryURL = DefaultGalleryURL
	}
	if c.clientID == "" {
		c.clientID = DefaultClientID
	}
	if c.template == "" {
		c.template = backing.DefaultPackageTemplate
	}
	if c.source == nil {
		c.source = &backing.HTTPSource{
			Client: c.http,
			Header: http.Header{"X-Client-Name": {constant.ClientName}},
		}
	}
	if options.CachePath != "" {
		c.versions = gache.New[*versionData](&gache.Options{
			Path:       options.CachePath,
			Lifetime:   versionLifetime,
			FileSystem: &filesystem.GacheFs{},
		})
	}

	return c
}

type galleryQuery struct {
	Filters []galleryFilter `json:"filters"`
	Flags   int             `json:"flags"`
}

type galleryFilter struct {
	Criteria []galleryCriterion `json:"criteria"`
}

type galleryCriterion struct {
	FilterType int    `json:"filterType"`
	Value      string `json:"value"`
}

type galleryResponse struct {
	Results []struct {
		Extensions []struct {
			Versions []struct {
				Version string `json:"version"`
			} `json:"versions"`
		} `json:"extensions"`
	} `json:"results"`
}

// LatestVersion asks the gallery for the newest published version of publisher.name.
func (c *Client) LatestVersion(ctx context.Context, publisher, name string) (string, error) {
	id := publisher + "." + name
	if version, ok := c.cachedVersion(id); ok {
		return version, nil
	}

	body, err := json.Marshal(galleryQuery{
		Filters: []galleryFilter{{Criteria: []galleryCriterion{
			{FilterType: filterTarget, Value: "Microsoft.VisualStudio.Code"},
			{FilterType: filterExtensionName, Value: id},
		}}},
		Flags: flagIncludeVersions,
	})
	if err != nil {
		return "", err
	}

	loc, _ := backing.ParseLocation(c.galleryURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.galleryURL, bytes.NewReader(body))
	if err != nil {
		return "", &backing.FetchError{Location: loc, Err: err}
	}
	req.Header.Set("Accept", "application/json;api-version=3.0-preview.1")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Market-Client-Id", c.clientID)

	log.Debugf("POST %s %s", c.galleryURL, id)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &backing.FetchError{Location: loc, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &backing.FetchError{Location: loc, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &backing.FetchError{Location: loc, Err: err}
	}

	var parsed galleryResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		log.Warnf("gallery response for %s: %v", id, err)
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if len(parsed.Results) == 0 ||
		len(parsed.Results[0].Extensions) == 0 ||
		len(parsed.Results[0].Extensions[0].Versions) == 0 ||
		parsed.Results[0].Extensions[0].Versions[0].Version == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	version := parsed.Results[0].Extensions[0].Versions[0].Version
	c.cacheVersion(id, version)
	return version, nil
}

// PackageRoot returns the location of the unpacked files of coord.
func (c *Client) PackageRoot(coord backing.Coordinate) (backing.Location, error) {
	return backing.PackageRoot(c.template, coord)
}

// FetchManifest downloads and parses the package.json of coord.
func (c *Client) FetchManifest(ctx context.Context, coord backing.Coordinate) (*Package, error) {
	root, err := c.PackageRoot(coord)
	if err != nil {
		return nil, err
	}

	loc := root.Join("package.json")
	data, err := c.source.ReadFile(ctx, loc)
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(loc.String(), data)
	if err != nil {
		return nil, err
	}

	return &Package{
		Coordinate: coord,
		Manifest:   manifest,
		Raw:        data,
		Root:       root,
		Source:     c.source,
	}, nil
}

// Find resolves the latest published package of publisher.name.
func (c *Client) Find(ctx context.Context, publisher, name string) (*Package, error) {
	version, err := c.LatestVersion(ctx, publisher, name)
	if err != nil {
		return nil, err
	}

	return c.FetchManifest(ctx, backing.Coordinate{Publisher: publisher, Name: name, Version: version})
}

func (c *Client) cachedVersion(id string) (string, bool) {
	if c.versions == nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.versions.Get()
	if err != nil || expired || data == nil {
		return "", false
	}

	version, ok := data.Versions[strings.ToLower(id)]
	return version, ok
}

func (c *Client) cacheVersion(id, version string) {
	if c.versions == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.versions.Get()
	if err != nil || expired || data == nil {
		data = &versionData{Versions: make(map[string]string)}
	}

	data.Versions[strings.ToLower(id)] = version
	if err := c.versions.Set(data); err != nil {
		log.Warnf("cache version of %s: %v", id, err)
	}
}
