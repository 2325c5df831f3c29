package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/smallbiznis/authhub/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

type GroupAction string

const (
	GroupActionAdd    GroupAction = "ADD_TO_GROUP"
	GroupActionRemove GroupAction = "REMOVE_FROM_GROUP"
)

// GroupSubscription is one derived group membership change for a user.
type GroupSubscription struct {
	KeycloakGUID string
	ProductCode  string
	GroupName    string
	Action       GroupAction
}

// Client manages product group membership in Keycloak.
type Client interface {
	AddOrRemoveGroups(ctx context.Context, subscriptions []GroupSubscription) error
}

type client struct {
	baseURL string
	realm   string
	http    *http.Client
	log     *zap.Logger

	mu       sync.Mutex
	groupIDs map[string]string
}

func NewClient(cfg config.Config, log *zap.Logger) Client {
	credentials := clientcredentials.Config{
		ClientID:     cfg.KeycloakClientID,
		ClientSecret: cfg.KeycloakClientSecret,
		TokenURL:     fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", cfg.KeycloakBaseURL, cfg.KeycloakRealm),
	}

	httpClient := credentials.Client(context.Background())
	httpClient.Timeout = 10 * time.Second

	return &client{
		baseURL:  cfg.KeycloakBaseURL,
		realm:    cfg.KeycloakRealm,
		http:     httpClient,
		log:      log.Named("keycloak"),
		groupIDs: make(map[string]string),
	}
}

// AddOrRemoveGroups applies a batch of group changes. Each change is
// attempted; failures are logged and collected rather than aborting the
// batch.
func (c *client) AddOrRemoveGroups(ctx context.Context, subscriptions []GroupSubscription) error {
	var errs []error
	for _, sub := range subscriptions {
		if err := c.applyGroupChange(ctx, sub); err != nil {
			c.log.Error("group membership change failed",
				zap.String("keycloak_guid", sub.KeycloakGUID),
				zap.String("group", sub.GroupName),
				zap.String("action", string(sub.Action)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *client) applyGroupChange(ctx context.Context, sub GroupSubscription) error {
	groupID, err := c.groupID(ctx, sub.GroupName)
	if err != nil {
		return err
	}

	method := http.MethodPut
	if sub.Action == GroupActionRemove {
		method = http.MethodDelete
	}

	endpoint := fmt.Sprintf("%s/admin/realms/%s/users/%s/groups/%s",
		c.baseURL, c.realm, url.PathEscape(sub.KeycloakGUID), url.PathEscape(groupID))

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("keycloak %s %s: %s: %s", method, endpoint, resp.Status, body)
	}
	return nil
}

// groupID resolves a group name to its Keycloak id, memoized for the life
// of the client. Groups are static reference data in the realm.
func (c *client) groupID(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if id, ok := c.groupIDs[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/admin/realms/%s/groups?search=%s", c.baseURL, c.realm, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("keycloak group lookup %q: %s", name, resp.Status)
	}

	var groups []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return "", err
	}
	for _, group := range groups {
		if group.Name == name {
			c.mu.Lock()
			c.groupIDs[name] = group.ID
			c.mu.Unlock()
			return group.ID, nil
		}
	}
	return "", fmt.Errorf("keycloak group %q not found", name)
}
