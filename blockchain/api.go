package blockchain

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	http_tls "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/itzngga/fakeuseragent"
)

// EligibilityResponse is the off-chain claim API's answer for one account.
type EligibilityResponse struct {
	CanClaim       bool   `json:"canClaim"`
	AccountAddress string `json:"accountAddress,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// EligibilityClient asks the claim site's API whether an account can claim
// before anything touches the chain. The site sits behind TLS
// fingerprinting, so requests go through a browser-profile client rather
// than net/http.
type EligibilityClient struct {
	endpoint string
}

// NewEligibilityClient returns a client for the given API endpoint.
func NewEligibilityClient(endpoint string) *EligibilityClient {
	return &EligibilityClient{endpoint: endpoint}
}

// Check posts the account address and parses the eligibility answer out of
// the response. proxyURL may be empty. Callers treat any error here as
// advisory: the on-chain claimable() read remains the source of truth.
func (e *EligibilityClient) Check(address, proxyURL string) (*EligibilityResponse, error) {
	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(jar),
	}
	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("creating tls client: %w", err)
	}

	body := strings.NewReader(fmt.Sprintf(`["%s"]`, address))
	request, err := http_tls.NewRequest(http_tls.MethodPost, e.endpoint, body)
	if err != nil {
		return nil, err
	}

	request.Header.Set("accept", "application/json, text/x-component")
	request.Header.Set("content-type", "text/plain;charset=UTF-8")
	request.Header.Set("cache-control", "no-cache")
	request.Header.Set("pragma", "no-cache")
	request.Header.Set("user-agent", fakeuseragent.DesktopUserAgent())

	resp, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseEligibility(string(raw))
}

// parseEligibility digs the JSON object out of the response. The API
// streams multiple lines of component data; the answer is the line holding
// the canClaim field.
func parseEligibility(body string) (*EligibilityResponse, error) {
	var jsonLine string
	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(line, `"canClaim"`) {
			jsonLine = line
			break
		}
	}
	if jsonLine == "" {
		return nil, fmt.Errorf("no eligibility data in response: %.200s", body)
	}

	if idx := strings.Index(jsonLine, "{"); idx != -1 {
		jsonLine = jsonLine[idx:]
	}
	if idx := strings.LastIndex(jsonLine, "}"); idx != -1 {
		jsonLine = jsonLine[:idx+1]
	}

	var response EligibilityResponse
	if err := json.Unmarshal([]byte(jsonLine), &response); err != nil {
		return nil, fmt.Errorf("parsing eligibility response: %w (%.200s)", err, jsonLine)
	}
	return &response, nil
}
