package models

import (
	"testing"
	"time"
)

func TestAllowedActionsWithdrawGuard(t *testing.T) {
	// Withdrawal requires a pending request whose sales leg has not
	// approved; every other combination must refuse it.
	cases := []struct {
		name          string
		status        string
		salesApproval string
		want          bool
	}{
		{"pending, sales pending", StatusPending, StatusPending, true},
		{"pending, sales rejected", StatusPending, StatusRejected, true},
		{"pending, sales approved", StatusPending, StatusApproved, false},
		{"approved", StatusApproved, StatusApproved, false},
		{"rejected", StatusRejected, StatusPending, false},
	}

	for _, tc := range cases {
		actions := AllowedActions(tc.status, tc.salesApproval, ProcessingNotProcessed)
		if actions.CanWithdraw != tc.want {
			t.Errorf("%s: CanWithdraw = %v, want %v", tc.name, actions.CanWithdraw, tc.want)
		}
	}
}

func TestAllowedActionsReviewAndProcessing(t *testing.T) {
	pending := AllowedActions(StatusPending, StatusPending, ProcessingNotProcessed)
	if !pending.CanApprove || !pending.CanReject {
		t.Error("pending request should allow approve and reject")
	}
	if pending.CanMarkProcessed || pending.CanCancel {
		t.Error("pending request should not allow processing actions")
	}

	approved := AllowedActions(StatusApproved, StatusApproved, ProcessingNotProcessed)
	if approved.CanApprove || approved.CanReject || approved.CanWithdraw {
		t.Error("approved request should not allow review or withdrawal")
	}
	if !approved.CanMarkProcessed || !approved.CanCancel {
		t.Error("approved unprocessed request should allow process and cancel")
	}

	processed := AllowedActions(StatusApproved, StatusApproved, ProcessingProcessed)
	if processed.CanMarkProcessed || processed.CanCancel {
		t.Error("processed request should be terminal")
	}

	rejected := AllowedActions(StatusRejected, StatusPending, ProcessingNotProcessed)
	if rejected.CanApprove || rejected.CanReject || rejected.CanWithdraw ||
		rejected.CanMarkProcessed || rejected.CanCancel {
		t.Error("rejected request should allow nothing")
	}
}

func TestDisplayStatus(t *testing.T) {
	cases := []struct {
		status     string
		processing string
		withdrawn  bool
		want       string
	}{
		{StatusPending, ProcessingNotProcessed, false, "Pending"},
		{StatusRejected, ProcessingNotProcessed, false, "Rejected"},
		{StatusRejected, ProcessingNotProcessed, true, "Withdrawn"},
		{StatusApproved, ProcessingNotProcessed, false, "Approved"},
		{StatusApproved, ProcessingProcessed, false, "Processed"},
		{StatusApproved, ProcessingCancelled, false, "Cancelled"},
	}

	for _, tc := range cases {
		if got := DisplayStatus(tc.status, tc.processing, tc.withdrawn); got != tc.want {
			t.Errorf("DisplayStatus(%s, %s, %v) = %q, want %q",
				tc.status, tc.processing, tc.withdrawn, got, tc.want)
		}
	}
}

func TestDeriveActions(t *testing.T) {
	r := RedemptionRequest{
		Status:              StatusPending,
		SalesApprovalStatus: StatusPending,
		ProcessingStatus:    ProcessingNotProcessed,
	}
	r.DeriveActions()
	if !r.Actions.CanWithdraw {
		t.Error("expected derived actions to allow withdrawal")
	}
	if r.DisplayStatus != "Pending" {
		t.Errorf("expected display status Pending, got %q", r.DisplayStatus)
	}

	// Withdrawn requests are stored as REJECTED plus a timestamp; the
	// derived label must tell them apart from plain rejections.
	now := time.Now()
	withdrawn := RedemptionRequest{
		Status:              StatusRejected,
		SalesApprovalStatus: StatusPending,
		ProcessingStatus:    ProcessingNotProcessed,
		WithdrawnAt:         &now,
	}
	withdrawn.DeriveActions()
	if withdrawn.DisplayStatus != "Withdrawn" {
		t.Errorf("expected display status Withdrawn, got %q", withdrawn.DisplayStatus)
	}
}
