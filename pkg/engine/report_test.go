package engine

import (
	"testing"
	"time"
)

func TestReportFinalizeStatuses(t *testing.T) {
	tests := []struct {
		name      string
		provision *ProvisionRecord
		destroy   *ProvisionRecord
		results   []Result
		want      RunStatus
	}{
		{
			name: "all succeeded",
			results: []Result{
				{Component: "a", Status: ResultSucceeded},
				{Component: "b", Status: ResultSkipped},
			},
			want: RunSuccess,
		},
		{
			name:    "empty run",
			results: nil,
			want:    RunSuccess,
		},
		{
			name: "failure present",
			results: []Result{
				{Component: "a", Status: ResultSucceeded},
				{Component: "b", Status: ResultFailed},
				{Component: "c", Status: ResultNotAttempted},
			},
			want: RunPartialFailure,
		},
		{
			name:      "provision failed",
			provision: &ProvisionRecord{Action: ProvisionApply, Status: ResultFailed},
			results: []Result{
				{Component: "a", Status: ResultNotAttempted},
			},
			want: RunAborted,
		},
		{
			name:    "destroy failed",
			destroy: &ProvisionRecord{Action: ProvisionDestroy, Status: ResultFailed},
			results: []Result{
				{Component: "a", Status: ResultSucceeded},
			},
			want: RunPartialFailure,
		},
		{
			name: "cancelled before any failure",
			results: []Result{
				{Component: "a", Status: ResultSucceeded},
				{Component: "b", Status: ResultNotAttempted},
			},
			want: RunAborted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := time.Now().Add(-time.Second)
			r := &Report{
				StartedAt: started,
				Provision: tt.provision,
				Destroy:   tt.destroy,
				Results:   tt.results,
			}
			r.finalize(time.Now())

			if r.Status != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, r.Status)
			}
			if r.Summary.Total != len(tt.results) {
				t.Errorf("expected total %d, got %d", len(tt.results), r.Summary.Total)
			}
			if r.Duration <= 0 {
				t.Errorf("expected positive duration, got %s", r.Duration)
			}
		})
	}
}

func TestReportSummaryCounts(t *testing.T) {
	r := &Report{
		StartedAt: time.Now(),
		Results: []Result{
			{Status: ResultSucceeded},
			{Status: ResultSucceeded},
			{Status: ResultSkipped},
			{Status: ResultFailed},
			{Status: ResultNotAttempted},
			{Status: ResultNotAttempted},
		},
	}
	r.finalize(time.Now())

	s := r.Summary
	if s.Succeeded != 2 || s.Skipped != 1 || s.Failed != 1 || s.NotAttempted != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.Total != 6 {
		t.Errorf("expected total 6, got %d", s.Total)
	}
}

func TestReportFirstFailure(t *testing.T) {
	r := &Report{
		Results: []Result{
			{Component: "a", Status: ResultSucceeded},
			{Component: "b", Status: ResultFailed},
			{Component: "c", Status: ResultFailed},
		},
	}
	f := r.FirstFailure()
	if f == nil || f.Component != "b" {
		t.Errorf("expected first failure at b, got %+v", f)
	}

	if f := (&Report{}).FirstFailure(); f != nil {
		t.Errorf("expected nil, got %+v", f)
	}
}

func TestStatusValidate(t *testing.T) {
	for _, s := range []ResultStatus{ResultSucceeded, ResultSkipped, ResultFailed, ResultNotAttempted} {
		if err := s.Validate(); err != nil {
			t.Errorf("expected %s to be valid: %v", s, err)
		}
	}
	if err := ResultStatus("pending").Validate(); err == nil {
		t.Error("expected error for unknown result status")
	}

	for _, s := range []RunStatus{RunSuccess, RunPartialFailure, RunAborted} {
		if err := s.Validate(); err != nil {
			t.Errorf("expected %s to be valid: %v", s, err)
		}
	}
	if err := RunStatus("running").Validate(); err == nil {
		t.Error("expected error for unknown run status")
	}
}
