package ingestor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/entitystore"
	"github.com/andrade-gabriel/ahocultural/metrics"
	"github.com/andrade-gabriel/ahocultural/resolver"
	"github.com/andrade-gabriel/ahocultural/searchindex"
)

const CName = "ingestor"

var log = logger.NewNamed(CName)

func New() Service {
	return &ingestor{done: make(chan struct{})}
}

// Service re-derives index documents from canonical entities in response
// to change messages. Index is idempotent: re-running the same id
// converges to the same index state.
type Service interface {
	app.ComponentRunnable

	Index(ctx context.Context, change domain.Change) error
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type ingestor struct {
	conf     Config
	store    entitystore.Store
	resolver resolver.Resolver
	search   searchindex.Client
	queue    sqsAPI
	cancel   context.CancelFunc
	done     chan struct{}
}

func (i *ingestor) Init(a *app.App) (err error) {
	i.conf = a.MustComponent("config").(configSource).GetIngestor()
	i.store = a.MustComponent(entitystore.CName).(entitystore.Store)
	i.resolver = a.MustComponent(resolver.CName).(resolver.Resolver)
	i.search = a.MustComponent(searchindex.CName).(searchindex.Client)

	if i.conf.QueueUrl == "" {
		return fmt.Errorf("sqs queue url is empty")
	}
	awsConf, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}
	if i.conf.Credentials.AccessKey != "" && i.conf.Credentials.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(i.conf.Credentials.AccessKey, i.conf.Credentials.SecretKey, "")
	}
	awsConf.Region = i.conf.Region
	i.queue = sqs.NewFromConfig(awsConf)
	return nil
}

func (i *ingestor) Name() string {
	return CName
}

func (i *ingestor) Run(ctx context.Context) (err error) {
	loopCtx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	go i.loop(loopCtx)
	return
}

// loop long-polls the queue. Each message is handled independently: one
// failing message is left in flight for redelivery and never blocks the
// rest of its batch.
func (i *ingestor) loop(ctx context.Context) {
	defer close(i.done)
	for {
		out, err := i.queue.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(i.conf.QueueUrl),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("receive failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		for _, msg := range out.Messages {
			_ = i.handleMessage(ctx, msg)
		}
	}
}

// handleMessage indexes one message and deletes it from the queue on
// success. On failure the message stays in flight so the queue
// redelivers it.
func (i *ingestor) handleMessage(ctx context.Context, msg types.Message) error {
	change := parseChange(aws.ToString(msg.Body))
	if err := i.Index(ctx, change); err != nil {
		metrics.IngestTotal.WithLabelValues("error").Inc()
		log.Error("index failed, message left for redelivery",
			zap.String("id", change.ID), zap.String("kind", string(change.Kind)), zap.Error(err))
		return err
	}
	metrics.IngestTotal.WithLabelValues("ok").Inc()
	if _, err := i.queue.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(i.conf.QueueUrl),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		log.Warn("delete message failed", zap.String("id", change.ID), zap.Error(err))
	}
	return nil
}

// parseChange tolerates both a bare change payload and the SNS envelope
// that wraps it when the queue is subscribed to the topic. A malformed
// body yields an empty change, which Index rejects.
func parseChange(body string) (change domain.Change) {
	var envelope struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		body = envelope.Message
	}
	_ = json.Unmarshal([]byte(body), &change)
	return
}

func (i *ingestor) Index(ctx context.Context, change domain.Change) error {
	if strings.TrimSpace(change.ID) == "" {
		return fmt.Errorf("change with empty id")
	}
	if !change.Kind.Valid() {
		return fmt.Errorf("change %q: unknown kind %q", change.ID, change.Kind)
	}
	switch change.Kind {
	case domain.KindEvent:
		return i.indexEvent(ctx, change.ID)
	case domain.KindCategory:
		return indexOne(ctx, i, change, mapCategory)
	case domain.KindArticle:
		return indexOne(ctx, i, change, mapArticle)
	case domain.KindLocation:
		return indexOne(ctx, i, change, mapLocation)
	case domain.KindCompany:
		return indexOne(ctx, i, change, mapCompany)
	case domain.KindAdvertisement:
		return indexOne(ctx, i, change, mapAdvertisement)
	case domain.KindAbout:
		// the institutional singleton is served from the store directly
		return nil
	default:
		return fmt.Errorf("change %q: unhandled kind %q", change.ID, change.Kind)
	}
}

func indexOne[T any, D any](ctx context.Context, i *ingestor, change domain.Change, mapDoc func(*T) D) error {
	entity, err := entitystore.GetAs[T](ctx, i.store, change.Kind, change.ID)
	if err != nil {
		return fmt.Errorf("fetch %s %q: %w", change.Kind, change.ID, err)
	}
	_, err = i.search.Upsert(ctx, i.search.IndexFor(change.Kind), change.ID, mapDoc(entity))
	return err
}

// indexEvent re-reads the event, resolves its company and location and
// replaces the whole occurrence fan-out: delete-by-query on the id, then
// upsert or bulk insert. The delete always runs so an event that shrank
// leaves no residue documents behind. The replace is not atomic: a
// reader between the delete and the insert sees no documents for the
// id.
func (i *ingestor) indexEvent(ctx context.Context, id string) error {
	event, err := entitystore.GetAs[domain.Event](ctx, i.store, domain.KindEvent, id)
	if err != nil {
		return fmt.Errorf("fetch event %q: %w", id, err)
	}

	var company *domain.Company
	if event.CompanyId != "" {
		if company, err = i.resolver.Company(ctx, event.CompanyId); err != nil {
			if !errors.Is(err, entitystore.ErrNotFound) {
				return fmt.Errorf("resolve company %q: %w", event.CompanyId, err)
			}
			log.Warn("event references missing company",
				zap.String("event", id), zap.String("company", event.CompanyId))
		}
	}
	var location *domain.Location
	if event.LocationId != "" {
		if location, err = i.resolver.Location(ctx, event.LocationId); err != nil {
			if !errors.Is(err, entitystore.ErrNotFound) {
				return fmt.Errorf("resolve location %q: %w", event.LocationId, err)
			}
			log.Warn("event references missing location",
				zap.String("event", id), zap.String("location", event.LocationId))
		}
	}

	docs := mapEvent(event, company, location)
	index := i.search.IndexFor(domain.KindEvent)
	if err = i.search.DeleteByQuery(ctx, index, id); err != nil {
		return err
	}
	if len(docs) == 1 {
		_, err = i.search.Upsert(ctx, index, id, docs[0])
		return err
	}
	items := make([]searchindex.BulkItem, len(docs))
	for n, doc := range docs {
		items[n] = searchindex.BulkItem{Id: eventDocId(id, n), Doc: doc}
	}
	return i.search.Bulk(ctx, index, items)
}

func (i *ingestor) Close(ctx context.Context) (err error) {
	if i.cancel != nil {
		i.cancel()
		select {
		case <-i.done:
		case <-time.After(10 * time.Second):
		}
	}
	return
}
