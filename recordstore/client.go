package recordstore

import (
	"context"
	"fmt"
	"net/url"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // CouchDB driver

	"sgengine.dev/engineerr"
)

// Client wraps a Kivik client bound to one CouchDB database, giving the
// rest of the package generic CRUD, bulk, index, and query operations to
// build the data/options/locks collection operations on top of.
type Client struct {
	client   *kivik.Client
	database *kivik.DB
	dbName   string
	config   Config
}

// NewClient opens (and optionally creates) the CouchDB database described by
// config and returns a Client ready for use.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	connectionURL, err := buildConnectionURL(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection url: %w", err)
	}

	client, err := kivik.New("couch", connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create couchdb client: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	exists, err := client.DBExists(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if !config.CreateIfMissing {
			return nil, fmt.Errorf("database %s does not exist", config.Database)
		}
		if err := client.CreateDB(ctx, config.Database); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", config.Database, err)
		}
	}

	return &Client{
		client:   client,
		database: client.DB(config.Database),
		dbName:   config.Database,
		config:   config,
	}, nil
}

func buildConnectionURL(config Config) (string, error) {
	if config.URL == "" {
		return "", fmt.Errorf("record store url cannot be empty")
	}
	if config.Username == "" && config.Password == "" {
		return config.URL, nil
	}

	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse record store url: %w", err)
	}
	parsedURL.User = url.UserPassword(config.Username, config.Password)
	return parsedURL.String(), nil
}

func asTransportErr(err error, errType string) error {
	if err == nil {
		return nil
	}
	if status := kivik.HTTPStatus(err); status != 0 {
		return &engineerr.TransportError{StatusCode: status, ErrorType: errType, Reason: err.Error()}
	}
	return err
}

// Get retrieves a document by ID into dest.
func (c *Client) Get(ctx context.Context, id string, dest any) error {
	row := c.database.Get(ctx, id)
	if row.Err() != nil {
		return asTransportErr(row.Err(), "get_failed")
	}
	if err := row.ScanDoc(dest); err != nil {
		return fmt.Errorf("failed to scan document %q: %w", id, err)
	}
	return nil
}

// Put creates or updates a document at id.
func (c *Client) Put(ctx context.Context, id string, doc any) (string, error) {
	rev, err := c.database.Put(ctx, id, doc)
	if err != nil {
		return "", asTransportErr(err, "put_failed")
	}
	return rev, nil
}

// Delete removes a document by ID and revision.
func (c *Client) Delete(ctx context.Context, id, rev string) error {
	_, err := c.database.Delete(ctx, id, rev)
	if err != nil {
		return asTransportErr(err, "delete_failed")
	}
	return nil
}

// Exists reports whether a document with the given ID is present.
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	row := c.database.Get(ctx, id)
	if row.Err() == nil {
		return true, nil
	}
	err := asTransportErr(row.Err(), "get_failed")
	if te, ok := err.(*engineerr.TransportError); ok && te.IsNotFound() {
		return false, nil
	}
	return false, err
}

// DB returns the underlying Kivik database handle for operations this
// client does not wrap directly.
func (c *Client) DB() *kivik.DB {
	return c.database
}

// Name returns the database name this client is bound to.
func (c *Client) Name() string {
	return c.dbName
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Stats reports document counts and storage size for the bound database.
type Stats struct {
	DocCount    int64
	DocDelCount int64
	UpdateSeq   string
	DiskSize    int64
	DataSize    int64
}

// Stats retrieves database statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	stats, err := c.database.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}
	return &Stats{
		DocCount:    stats.DocCount,
		DocDelCount: stats.DeletedCount,
		UpdateSeq:   stats.UpdateSeq,
		DiskSize:    stats.DiskSize,
		DataSize:    stats.ActiveSize,
	}, nil
}
