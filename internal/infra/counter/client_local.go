//go:build !gcloud

package counter

import "net/http"

func newHTTPClient(string) *http.Client {
	return plainHTTPClient()
}
