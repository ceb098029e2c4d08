/*
Copyright © 2019 the ugrid authors.
This file is part of ugrid.

ugrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ugrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ugrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package opendap is a client for the DAP2 protocol used by OPeNDAP
// servers such as THREDDS. It reads the dataset structure (.dds),
// attributes (.das) and hyperslabs of array data (.dods).
package opendap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/golang/groupcache/lru"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the server has no dataset at a URL.
var ErrNotFound = errors.New("opendap: dataset not found")

// metadataCacheSize is the number of DDS and DAS responses kept in memory.
const metadataCacheSize = 64

// Client requests data from OPeNDAP servers.
type Client struct {
	// HTTP is the client used for requests.
	HTTP *http.Client

	// Retries is the number of times a failed request is retried with
	// exponential backoff. Requests for datasets that do not exist are
	// never retried.
	Retries int

	// Log receives retry notices.
	Log logrus.FieldLogger

	mu    sync.Mutex
	cache *lru.Cache
}

// NewClient returns a client that uses hc for requests, or
// http.DefaultClient if hc is nil.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		HTTP:  hc,
		Log:   logrus.StandardLogger(),
		cache: lru.New(metadataCacheSize),
	}
}

// Open reads the structure and attributes of the dataset at url.
func (c *Client) Open(ctx context.Context, url string) (*Dataset, error) {
	url = strings.TrimSuffix(url, ".html")
	b, err := c.metadata(ctx, url+".dds")
	if err != nil {
		return nil, err
	}
	dds, err := ParseDDS(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w (%s.dds)", err, url)
	}
	b, err = c.metadata(ctx, url+".das")
	if err != nil {
		return nil, err
	}
	das, err := ParseDAS(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w (%s.das)", err, url)
	}
	return &Dataset{URL: url, DDS: dds, DAS: das, c: c}, nil
}

// metadata returns the response body for url, from the cache if
// possible.
func (c *Client) metadata(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	if c.cache == nil {
		c.cache = lru.New(metadataCacheSize)
	}
	v, ok := c.cache.Get(url)
	c.mu.Unlock()
	if ok {
		return v.([]byte), nil
	}
	b, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache.Add(url, b)
	c.mu.Unlock()
	return b, nil
}

// get returns the body of the response to a GET request for url.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	var notFound error
	op := func() error {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req = req.WithContext(ctx)
		req.Header.Set("Accept-Encoding", "gzip")
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			notFound = fmt.Errorf("%w: %s", ErrNotFound, url)
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("opendap: %s: %s: %s", url, resp.Status, bytes.TrimSpace(msg))
		}
		var r io.Reader = resp.Body
		if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
			gz, err := gzip.NewReader(resp.Body)
			if err != nil {
				return fmt.Errorf("opendap: %s: %w", url, err)
			}
			defer gz.Close()
			r = gz
		}
		body, err = ioutil.ReadAll(r)
		if err != nil {
			return fmt.Errorf("opendap: reading %s: %w", url, err)
		}
		return nil
	}

	var err error
	if c.Retries > 0 {
		err = backoff.RetryNotify(
			op,
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.Retries)),
			func(err error, d time.Duration) {
				c.logger().WithField("url", url).Warnf("request failed: %v; retrying in %v", err, d)
			},
		)
	} else {
		err = op()
	}
	if err != nil {
		return nil, err
	}
	if notFound != nil {
		return nil, notFound
	}
	return body, nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
