// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets mirrors the frontend's third-party files (globe texture,
// three.js, country outlines) into the frontend directory so the server can
// run without a CDN at page load.
package assets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// PinnedThreeVersion is the three.js release the frontend is written against.
// The raw.githubusercontent mirrors reference the matching r160 tag.
const PinnedThreeVersion = "0.160.0"

// Asset is one file to mirror: the first reachable URL wins.
type Asset struct {
	// Name is the label used in progress output.
	Name string `yaml:"name"`

	// Path is the destination, relative to the frontend directory.
	Path string `yaml:"path"`

	// Mirrors are tried in order until one succeeds.
	Mirrors []string `yaml:"mirrors"`
}

// Manifest lists every asset the frontend needs.
type Manifest struct {
	Assets []Asset `yaml:"assets"`
}

// DefaultManifest returns the built-in asset list.
func DefaultManifest() Manifest {
	return Manifest{Assets: []Asset{
		{
			Name: "Earth texture",
			Path: filepath.Join("assets", "earth_daymap_2k.jpg"),
			Mirrors: []string{
				"https://threejs.org/examples/textures/land_ocean_ice_cloud_2048.jpg",
				"https://cdn.jsdelivr.net/gh/mrdoob/three.js@r160/examples/textures/land_ocean_ice_cloud_2048.jpg",
				"https://raw.githubusercontent.com/mrdoob/three.js/r160/examples/textures/land_ocean_ice_cloud_2048.jpg",
			},
		},
		{
			Name: "three.module.js",
			Path: filepath.Join("vendor", "three.module.js"),
			Mirrors: []string{
				"https://cdn.jsdelivr.net/npm/three@" + PinnedThreeVersion + "/build/three.module.js",
				"https://unpkg.com/three@" + PinnedThreeVersion + "/build/three.module.js",
				"https://raw.githubusercontent.com/mrdoob/three.js/r160/build/three.module.js",
			},
		},
		{
			Name: "OrbitControls.js",
			Path: filepath.Join("vendor", "OrbitControls.js"),
			Mirrors: []string{
				"https://cdn.jsdelivr.net/npm/three@" + PinnedThreeVersion + "/examples/jsm/controls/OrbitControls.js",
				"https://unpkg.com/three@" + PinnedThreeVersion + "/examples/jsm/controls/OrbitControls.js",
				"https://raw.githubusercontent.com/mrdoob/three.js/r160/examples/jsm/controls/OrbitControls.js",
			},
		},
		{
			Name: "countries.geojson",
			Path: filepath.Join("assets", "countries.geojson"),
			Mirrors: []string{
				"https://raw.githubusercontent.com/johan/world.geo.json/master/countries.geo.json",
				"https://raw.githubusercontent.com/datasets/geo-countries/master/data/countries.geojson",
			},
		},
	}}
}

// LoadManifest reads a manifest from a YAML file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// EnsureResult holds the outcome of an Ensure run.
type EnsureResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// HasFailures reports whether any asset could not be fetched from any mirror.
func (r EnsureResult) HasFailures() bool {
	return r.Failed > 0
}

// Ensure downloads every manifest asset missing from frontendDir, printing
// per-asset status to w. An asset already present with nonzero size is
// skipped. It continues after individual failures: a missing texture degrades
// the page, it does not stop the server.
func Ensure(client *http.Client, m Manifest, frontendDir string, w io.Writer) EnsureResult {
	var result EnsureResult
	for _, asset := range m.Assets {
		dest := filepath.Join(frontendDir, asset.Path)
		if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", asset.Name)
			result.Skipped++
			continue
		}
		if err := fetchFirst(client, asset, dest, w); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", asset.Name, err)
			result.Failed++
			continue
		}
		result.Downloaded++
	}
	return result
}

// fetchFirst tries each mirror in order and writes the first success to dest.
func fetchFirst(client *http.Client, asset Asset, dest string, w io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	var lastErr error
	for _, mirror := range asset.Mirrors {
		fmt.Fprintf(w, "fetching: %s from %s\n", asset.Name, mirror)
		if err := downloadFile(client, mirror, dest); err != nil {
			fmt.Fprintf(w, "  warning: %v\n", err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no mirrors configured")
	}
	return fmt.Errorf("all mirrors failed: %w", lastErr)
}

// downloadFile fetches url to destPath using a temporary file, renaming on
// success so a partial download never shadows the asset.
func downloadFile(client *http.Client, url, destPath string) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".assets-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
