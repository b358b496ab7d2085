package metadata

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/birkland/bagval"
	"github.com/pkg/errors"
)

// HTTPClient is used to fetch profiles given as http(s) URLs
var HTTPClient = http.DefaultClient

// LoadProfile reads and parses a profile from a local file, a file:// URL,
// or an http(s) URL.  Failure to obtain the profile is a configuration
// error, just like a malformed one.
func LoadProfile(ctx context.Context, location string) (*Profile, error) {
	body, err := open(ctx, location)
	if err != nil {
		return nil, bagval.Configf("could not load profile %s: %s", location, err)
	}
	defer body.Close()

	p, err := ParseProfile(body)
	if err != nil {
		return nil, errors.Wrapf(err, "bad profile %s", location)
	}
	p.Source = location

	return p, nil
}

func open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isRemote(location) {
		return os.Open(strings.TrimPrefix(location, "file://"))
	}

	req, err := http.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrap(err, "bad profile URL")
	}

	resp, err := HTTPClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected HTTP status %s", resp.Status)
	}

	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
