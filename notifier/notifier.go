package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/domain"
)

const CName = "notifier"

var log = logger.NewNamed(CName)

func New() Notifier {
	return &notifier{}
}

// Notifier publishes change payloads to the SNS topic that fans out to
// the ingestion queues. A single publish, no batching and no retry: the
// caller decides what a failed publish means.
type Notifier interface {
	app.Component

	Publish(ctx context.Context, change domain.Change) error
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type notifier struct {
	topicArn string
	client   snsAPI
}

func (n *notifier) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configSource).GetNotifier()
	if conf.TopicArn == "" {
		return fmt.Errorf("sns topic arn is empty")
	}

	awsConf, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}
	if conf.Credentials.AccessKey != "" && conf.Credentials.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(conf.Credentials.AccessKey, conf.Credentials.SecretKey, "")
	}
	awsConf.Region = conf.Region
	n.topicArn = conf.TopicArn
	n.client = sns.NewFromConfig(awsConf)
	return nil
}

func (n *notifier) Name() string {
	return CName
}

func (n *notifier) Publish(ctx context.Context, change domain.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("publish change %s/%s: %w", change.Kind, change.ID, err)
	}
	log.Debug("change published", zap.String("id", change.ID), zap.String("kind", string(change.Kind)))
	return nil
}
