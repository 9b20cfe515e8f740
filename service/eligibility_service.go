package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/metrics"
	"github.com/Aashish23092/loan-intake-verification/session"
)

const (
	AnnualInterestRate  = 12.0
	IncomeMultiplier    = 36.0
	MaxEMIToIncomeRatio = 0.5
	ReasonEMIExceeds    = "EMI exceeds income limit"
	ReasonAmountExceeds = "Loan amount exceeds eligibility"
)

// DecisionRecorder keeps an audit trail of decisions.
type DecisionRecorder interface {
	Record(ctx context.Context, profile dto.UserProfile, result dto.EligibilityResult) error
}

// DecisionNotifier tells downstream systems about a decision.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, profile dto.UserProfile, result dto.EligibilityResult) error
}

type EligibilityService struct {
	sessions *session.Manager
	recorder DecisionRecorder
	notifier DecisionNotifier
	logger   *zap.Logger
}

// NewEligibilityService builds the service; recorder and notifier may be nil.
func NewEligibilityService(sessions *session.Manager, recorder DecisionRecorder, notifier DecisionNotifier, logger *zap.Logger) *EligibilityService {
	return &EligibilityService{
		sessions: sessions,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}
}

// CalculateEMI returns the equated monthly installment of an amortizing loan.
func CalculateEMI(principal, annualRate float64, tenureMonths int) float64 {
	if tenureMonths <= 0 {
		return principal
	}
	n := float64(tenureMonths)
	r := annualRate / (12 * 100)
	if r == 0 {
		return principal / n
	}
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1)
}

// Evaluate decides the application from the profile alone. It always yields exactly one
// status and one activity.
func Evaluate(profile dto.UserProfile) dto.EligibilityResult {
	if profile.VerifiedDocumentCount() < len(dto.RequiredDocumentTypes) {
		return dto.EligibilityResult{
			Status: dto.StatusNeedsMoreInfo,
			Activity: dto.NewRecentActivity(
				"Document Verification Failed",
				"Please ensure all documents are verified",
				dto.ActivityFailure,
			),
		}
	}

	if profile.LoanAmount <= 0 || profile.LoanPeriodMonths <= 0 {
		return dto.EligibilityResult{
			Status: dto.StatusNeedsMoreInfo,
			Activity: dto.NewRecentActivity(
				"Loan Details Required",
				"Please submit a loan amount and tenure",
				dto.ActivityFailure,
			),
		}
	}

	monthlyIncome, ok := verifiedIncome(profile)
	if !ok {
		return dto.EligibilityResult{
			Status: dto.StatusRejected,
			Activity: dto.NewRecentActivity(
				"Income Verification Failed",
				"Unable to verify income details",
				dto.ActivityFailure,
			),
		}
	}

	maxLoanAmount := monthlyIncome * IncomeMultiplier
	emi := CalculateEMI(profile.LoanAmount, AnnualInterestRate, profile.LoanPeriodMonths)

	emiAffordable := emi <= monthlyIncome*MaxEMIToIncomeRatio
	amountWithinLimit := profile.LoanAmount <= maxLoanAmount

	result := dto.EligibilityResult{
		MonthlyIncome: monthlyIncome,
		MaxLoanAmount: maxLoanAmount,
		EMI:           emi,
	}

	if emiAffordable && amountWithinLimit {
		result.Status = dto.StatusApproved
		result.Activity = dto.NewRecentActivity(
			"Loan Approved",
			fmt.Sprintf("Congratulations! Your loan for ₹%d has been approved", int64(profile.LoanAmount)),
			dto.ActivitySuccess,
		)
		return result
	}

	reason := ReasonAmountExceeds
	if !emiAffordable {
		reason = ReasonEMIExceeds
	}
	result.Status = dto.StatusRejected
	result.Activity = dto.NewRecentActivity("Loan Application Rejected", reason, dto.ActivityFailure)
	return result
}

// verifiedIncome reads the monthly income from the verified income proof.
func verifiedIncome(profile dto.UserProfile) (float64, bool) {
	doc, ok := profile.Documents[dto.DocTypeIncomeProof]
	if !ok || !doc.IsVerified || doc.ExtractedDetails == nil || doc.ExtractedDetails.Income == nil {
		return 0, false
	}
	income, err := strconv.ParseFloat(*doc.ExtractedDetails.Income, 64)
	if err != nil || math.IsNaN(income) || math.IsInf(income, 0) {
		return 0, false
	}
	return income, true
}

// EvaluateApplication evaluates the applicant's current profile and applies the result
// in one write. Audit and notification failures are logged only.
func (s *EligibilityService) EvaluateApplication(ctx context.Context, applicantID string) (dto.EligibilityResult, dto.UserProfile, error) {
	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.EligibilityResult{}, dto.UserProfile{}, err
	}

	result, profile := sess.Evaluate(Evaluate)

	metrics.EligibilityDecisions.WithLabelValues(statusLabel(result.Status)).Inc()
	s.logger.Info("eligibility evaluated",
		zap.String("applicant_id", applicantID),
		zap.String("status", string(result.Status)),
		zap.String("reason", result.Activity.Description),
		zap.Float64("emi", result.EMI),
		zap.Float64("max_loan_amount", result.MaxLoanAmount),
	)

	_ = s.sessions.Persist(ctx, profile)
	s.publish(ctx, profile, result)

	return result, profile, nil
}

func (s *EligibilityService) publish(ctx context.Context, profile dto.UserProfile, result dto.EligibilityResult) {
	var errs []error
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, profile, result); err != nil {
			errs = append(errs, err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyDecision(ctx, profile, result); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("failed to publish eligibility decision",
			zap.String("applicant_id", profile.ApplicantID), zap.Error(err))
	}
}

func statusLabel(status dto.ApplicationStatus) string {
	switch status {
	case dto.StatusApproved:
		return "approved"
	case dto.StatusRejected:
		return "rejected"
	case dto.StatusNeedsMoreInfo:
		return "needs_more_info"
	}
	return "other"
}
