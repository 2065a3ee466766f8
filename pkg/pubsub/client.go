// Package pubsub wraps the Pub/Sub v2 client shared by the outbox publisher
// and the event consumers.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Resource is a topic or subscription that must exist before the process
// starts work. Ping re-checks the same list.
type Resource struct {
	kind string
	name string
}

func Topic(name string) Resource        { return Resource{kind: "topics", name: strings.TrimSpace(name)} }
func Subscription(name string) Resource { return Resource{kind: "subscriptions", name: strings.TrimSpace(name)} }

type Client struct {
	ps       *pubsub.Client
	names    resourceNames
	cfg      config.PubSubConfig
	required []Resource
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger, required ...Resource) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	ps, err := pubsub.NewClient(ctx, project, authOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{ps: ps, names: resourceNames{project: project}, cfg: cfg}
	for _, r := range required {
		if r.name != "" {
			c.required = append(c.required, r)
		}
	}
	if err := c.verify(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	if logg != nil {
		names := make([]string, 0, len(c.required))
		for _, r := range c.required {
			names = append(names, r.kind+"/"+r.name)
		}
		logg.Info(logg.WithField(ctx, "resources", names), "pubsub.client.ready")
	}
	return c, nil
}

func authOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (c *Client) verify(ctx context.Context) error {
	for _, r := range c.required {
		full := c.names.resolve(r.kind, r.name)
		var err error
		switch r.kind {
		case "topics":
			_, err = c.ps.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
		default:
			_, err = c.ps.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
		}
		switch {
		case err == nil:
		case status.Code(err) == codes.NotFound:
			return fmt.Errorf("%s %q does not exist", strings.TrimSuffix(r.kind, "s"), r.name)
		default:
			return fmt.Errorf("checking %s %q: %w", strings.TrimSuffix(r.kind, "s"), r.name, err)
		}
	}
	return nil
}

// Subscriber accepts a bare id or a full resource name.
func (c *Client) Subscriber(name string) *pubsub.Subscriber {
	if c == nil || c.ps == nil {
		return nil
	}
	full := c.names.resolve("subscriptions", name)
	if full == "" {
		return nil
	}
	return c.ps.Subscriber(full)
}

func (c *Client) EmailSubscription() *pubsub.Subscriber {
	return c.Subscriber(c.cfg.EmailSubscription)
}

func (c *Client) AnalyticsSubscription() *pubsub.Subscriber {
	return c.Subscriber(c.cfg.AnalyticsSubscription)
}

// Publisher accepts a bare topic id or a full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.ps == nil {
		return nil
	}
	full := c.names.resolve("topics", name)
	if full == "" {
		return nil
	}
	return c.ps.Publisher(full)
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.ps == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.verify(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.ps == nil {
		return nil
	}
	return c.ps.Close()
}

type resourceNames struct {
	project string
}

// resolve expands a bare id to projects/<project>/<kind>/<id>. Names that
// are already fully qualified pass through.
func (n resourceNames) resolve(kind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	if n.project == "" {
		return ""
	}
	return "projects/" + n.project + "/" + kind + "/" + name
}
