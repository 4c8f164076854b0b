package notifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrade-gabriel/ahocultural/domain"
)

var ctx = context.Background()

func TestNotifier_Publish(t *testing.T) {
	client := &fakeSNS{}
	n := &notifier{topicArn: "arn:aws:sns:us-east-1:000000000000:changes", client: client}

	require.NoError(t, n.Publish(ctx, domain.Change{ID: "arte", Kind: domain.KindCategory}))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:changes", aws.ToString(in.TopicArn))
	assert.JSONEq(t, `{"id":"arte","kind":"category"}`, aws.ToString(in.Message))
}

func TestNotifier_PublishError(t *testing.T) {
	client := &fakeSNS{err: fmt.Errorf("throttled")}
	n := &notifier{topicArn: "arn:test", client: client}

	err := n.Publish(ctx, domain.Change{ID: "sarau", Kind: domain.KindEvent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sarau")
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}
