// Package notify publishes eligibility decisions to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// Publisher is the subset of the SNS client used here.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type DecisionMessage struct {
	ApplicantID      string                `json:"applicant_id"`
	Status           dto.ApplicationStatus `json:"status"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	LoanAmount       float64               `json:"loan_amount"`
	LoanPeriodMonths int                   `json:"loan_period_months"`
	EMI              float64               `json:"emi,omitempty"`
	DecidedAt        string                `json:"decided_at"`
}

type SNSNotifier struct {
	client   Publisher
	topicARN string
}

func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

func NewSNSNotifier(client Publisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// NotifyDecision publishes the decision with a "status" attribute for subscription filters.
func (n *SNSNotifier) NotifyDecision(ctx context.Context, profile dto.UserProfile, result dto.EligibilityResult) error {
	msg := DecisionMessage{
		ApplicantID:      profile.ApplicantID,
		Status:           result.Status,
		Title:            result.Activity.Title,
		Description:      result.Activity.Description,
		LoanAmount:       profile.LoanAmount,
		LoanPeriodMonths: profile.LoanPeriodMonths,
		EMI:              result.EMI,
		DecidedAt:        result.Activity.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal decision message: %w", err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(result.Activity.Title),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(result.Status)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish decision: %w", err)
	}
	return nil
}
