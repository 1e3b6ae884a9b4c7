package pulsarconn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	pulsaradmin "github.com/streamnative/pulsar-admin-go"
	"github.com/streamnative/pulsar-admin-go/pkg/utils"
)

// AdminLookup is the production transport.LookupService, implemented
// against the Pulsar admin REST API. pulsar-admin-go's typed client
// (used below for EnsureTopic) does not expose the broker-lookup
// endpoint (/lookup/v2/topic/...), so LookupTopic falls back to a direct
// HTTP call against the same admin URL — the one place in this package
// that reaches for net/http instead of the admin SDK, and only because
// the SDK has no typed method for it.
type AdminLookup struct {
	adminURL   string
	httpClient *http.Client
}

// NewAdminLookup returns a LookupService backed by the admin REST API at
// adminURL (e.g. "http://localhost:8080").
func NewAdminLookup(adminURL string) *AdminLookup {
	return &AdminLookup{
		adminURL:   adminURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type lookupResponse struct {
	BrokerURL    string `json:"brokerUrl"`
	BrokerURLTLS string `json:"brokerUrlTls"`
}

// LookupTopic resolves the broker currently owning topicName. It is safe
// to call repeatedly: a GET against the admin lookup endpoint has no side
// effects.
func (a *AdminLookup) LookupTopic(ctx context.Context, topicName string) (string, error) {
	url := fmt.Sprintf("%s/lookup/v2/topic/%s", a.adminURL, stripScheme(topicName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("pulsarconn: build lookup request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pulsarconn: lookup topic %s: %w", topicName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pulsarconn: lookup topic %s: status %d", topicName, resp.StatusCode)
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("pulsarconn: decode lookup response: %w", err)
	}
	if lr.BrokerURL == "" {
		return "", fmt.Errorf("pulsarconn: lookup topic %s: empty broker URL", topicName)
	}
	return lr.BrokerURL, nil
}

func stripScheme(topicName string) string {
	for _, prefix := range []string{"persistent://", "non-persistent://"} {
		if len(topicName) > len(prefix) && topicName[:len(prefix)] == prefix {
			kind := "persistent"
			if prefix == "non-persistent://" {
				kind = "non-persistent"
			}
			return kind + "/" + topicName[len(prefix):]
		}
	}
	return "persistent/" + topicName
}

// EnsureTopic verifies (or creates) the partitioned topic configuration
// named by topicName, using the typed admin client.
func EnsureTopic(adminURL, topicName string, partitions int) error {
	admin, err := pulsaradmin.NewClient(&pulsaradmin.Config{WebServiceURL: adminURL})
	if err != nil {
		return fmt.Errorf("pulsarconn: create admin client: %w", err)
	}

	parsed, err := utils.GetTopicName(topicName)
	if err != nil {
		return fmt.Errorf("pulsarconn: invalid topic name %s: %w", topicName, err)
	}

	exists, err := topicExists(admin, parsed)
	if err != nil {
		return fmt.Errorf("pulsarconn: check topic existence: %w", err)
	}

	if exists {
		if partitions > 0 {
			metadata, err := admin.Topics().GetMetadata(*parsed)
			if err != nil {
				logrus.WithError(err).Warn("pulsarconn: could not verify partition count")
				return nil
			}
			if metadata.Partitions != partitions {
				return fmt.Errorf("pulsarconn: topic %s exists with %d partitions, config wants %d",
					topicName, metadata.Partitions, partitions)
			}
		}
		return nil
	}

	if partitions > 0 {
		if err := admin.Topics().Create(*parsed, partitions); err != nil {
			return fmt.Errorf("pulsarconn: create partitioned topic: %w", err)
		}
	}
	return nil
}

func topicExists(admin pulsaradmin.Client, topicName *utils.TopicName) (bool, error) {
	_, err := admin.Topics().GetMetadata(*topicName)
	if err != nil {
		return false, nil
	}
	return true, nil
}
