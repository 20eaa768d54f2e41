// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP plumbing shared by the provider clients:
// classified failures and bounded response reads. There is no retry layer;
// rate-limit responses surface as TOO_MANY_REQUESTS and the engines degrade
// around them.
package httputil

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/citation-engine/internal/provider"
)

// DefaultMaxResponseBytes caps response bodies (20 MB). Citation lists for
// heavily cited works are large but nowhere near this.
const DefaultMaxResponseBytes int64 = 20 * 1024 * 1024

// Do executes req and returns the response body. Transport errors, timeouts,
// and non-200 statuses come back as *provider.Error tagged with providerName
// and op. The body read is bounded by maxBytes (DefaultMaxResponseBytes when
// maxBytes <= 0).
func Do(client *http.Client, req *http.Request, providerName, op string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, provider.Classify(providerName, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, provider.FromStatus(providerName, op, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, provider.Classify(providerName, op, err)
	}
	if int64(len(body)) > maxBytes {
		return nil, provider.New(provider.KindInternal, providerName, op,
			errTooLarge{limit: maxBytes})
	}
	return body, nil
}

type errTooLarge struct{ limit int64 }

func (e errTooLarge) Error() string {
	return fmt.Sprintf("response exceeds %d byte limit", e.limit)
}
