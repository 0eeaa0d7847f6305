package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-consult-auth/internal/config"
	"github.com/go-consult-auth/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ChallengeNotifier hands one-time codes to an SNS topic; a downstream
// subscriber owns the actual delivery channel.
type ChallengeNotifier struct {
	client   publisher
	topicARN string
}

func NewChallengeNotifier(cfg *config.Config) (*ChallengeNotifier, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.SNSRegion)}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	if cfg.SNSTopicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN is required for the sns notifier")
	}
	return &ChallengeNotifier{client: sns.NewFromConfig(awsCfg, clientOpts...), topicARN: cfg.SNSTopicARN}, nil
}

func (n *ChallengeNotifier) SendChallenge(ctx context.Context, email, code string, purpose domain.ChallengePurpose) error {
	msg := fmt.Sprintf("Your %s verification code is %s", purpose, code)
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(msg),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"email":   {DataType: aws.String("String"), StringValue: aws.String(email)},
			"purpose": {DataType: aws.String("String"), StringValue: aws.String(string(purpose))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
