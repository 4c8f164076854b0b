package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/domain"
)

const CName = "searchindex"

var log = logger.NewNamed(CName)

// ErrNotFound is returned when a document lookup finds nothing; it is
// not a transport failure.
var ErrNotFound = errors.New("document not found")

// Result is the index engine's verdict on an upsert.
type Result string

const (
	ResultCreated Result = "created"
	ResultUpdated Result = "updated"
)

func New() Client {
	return &client{}
}

// Client talks to the search engine's REST surface with SigV4-signed
// plain HTTP requests.
type Client interface {
	app.Component

	Upsert(ctx context.Context, index, id string, doc any) (Result, error)
	GetByID(ctx context.Context, index, id string) (json.RawMessage, error)
	GetBySlug(ctx context.Context, index, slug string) (json.RawMessage, error)
	Search(ctx context.Context, index string, q Query) ([]json.RawMessage, error)
	DeleteByQuery(ctx context.Context, index, entityId string) error
	Bulk(ctx context.Context, index string, items []BulkItem) error
	// IndexFor maps an entity kind to its index name.
	IndexFor(kind domain.Kind) string
}

// BulkItem is one document of a bulk insert; Id becomes the document _id.
type BulkItem struct {
	Id  string
	Doc any
}

type client struct {
	conf Config
	http *http.Client
}

func (c *client) Init(a *app.App) (err error) {
	c.conf = a.MustComponent("config").(configSource).GetSearchIndex()
	if c.conf.Endpoint == "" {
		return fmt.Errorf("search endpoint is empty")
	}

	awsConf, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}
	if c.conf.Credentials.AccessKey != "" && c.conf.Credentials.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(c.conf.Credentials.AccessKey, c.conf.Credentials.SecretKey, "")
	}

	retryMax := c.conf.RetryMax
	if retryMax <= 0 {
		retryMax = 3
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.Logger = nil
	rc.HTTPClient.Transport = &signingTransport{
		next:    http.DefaultTransport,
		signer:  v4.NewSigner(),
		creds:   awsConf.Credentials,
		region:  c.conf.Region,
		service: "es",
	}
	c.http = rc.StandardClient()
	return nil
}

func (c *client) Name() string {
	return CName
}

func (c *client) IndexFor(kind domain.Kind) string {
	prefix := c.conf.IndexPrefix
	if prefix == "" {
		prefix = "ahocultural"
	}
	return prefix + "-" + string(kind)
}

func (c *client) Upsert(ctx context.Context, index, id string, doc any) (Result, error) {
	var resp struct {
		Result string `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPut, index+"/_doc/"+url.PathEscape(id), doc, &resp)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("upsert %s/%s: unexpected status %d", index, id, status)
	}
	switch Result(resp.Result) {
	case ResultCreated, ResultUpdated:
		return Result(resp.Result), nil
	default:
		return "", fmt.Errorf("upsert %s/%s: unexpected result %q", index, id, resp.Result)
	}
}

func (c *client) GetByID(ctx context.Context, index, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	status, err := c.do(ctx, http.MethodGet, index+"/_source/"+url.PathEscape(id), nil, &raw)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("get %s/%s: unexpected status %d", index, id, status)
	}
	return raw, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *client) GetBySlug(ctx context.Context, index, slug string) (json.RawMessage, error) {
	docs, err := c.search(ctx, index, slugQuery(slug))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (c *client) Search(ctx context.Context, index string, q Query) ([]json.RawMessage, error) {
	return c.search(ctx, index, q.body())
}

func (c *client) search(ctx context.Context, index string, body map[string]any) ([]json.RawMessage, error) {
	var resp searchResponse
	status, err := c.do(ctx, http.MethodPost, index+"/_search", body, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("search %s: unexpected status %d", index, status)
	}
	docs := make([]json.RawMessage, len(resp.Hits.Hits))
	for i, hit := range resp.Hits.Hits {
		docs[i] = hit.Source
	}
	return docs, nil
}

func (c *client) DeleteByQuery(ctx context.Context, index, entityId string) error {
	status, err := c.do(ctx, http.MethodPost, index+"/_delete_by_query", deleteByIdQuery(entityId), nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("delete by query %s id=%s: unexpected status %d", index, entityId, status)
	}
	return nil
}

func (c *client) Bulk(ctx context.Context, index string, items []BulkItem) error {
	if len(items) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		meta := map[string]any{
			"index": map[string]any{"_index": index, "_id": item.Id},
		}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(item.Doc); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointJoin("_bulk"), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bulk %s: status %d: %s", index, resp.StatusCode, data)
	}
	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return err
	}
	if bulkResp.Errors {
		return fmt.Errorf("bulk %s: one or more items failed", index)
	}
	log.Debug("bulk indexed", zap.String("index", index), zap.Int("items", len(items)))
	return nil
}

// do issues one signed JSON request and decodes the response body into
// out when out is non-nil. 4xx statuses are returned to the caller to
// classify; transport errors are returned as errors.
func (c *client) do(ctx context.Context, method, path string, body, out any) (status int, err error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpointJoin(path), reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (c *client) endpointJoin(path string) string {
	return strings.TrimRight(c.conf.Endpoint, "/") + "/" + path
}
