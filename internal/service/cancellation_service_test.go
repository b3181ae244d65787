package service

import (
	"errors"
	"testing"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

const (
	testStudentID   int64 = 10
	testCounselorID int64 = 20
)

func confirmedSession() *model.CounselingSession {
	return &model.CounselingSession{
		StudentID:   testStudentID,
		CounselorID: testCounselorID,
		Status:      model.SessionStatusConfirmed,
		ChatStatus:  model.ChatStatusClosed,
	}
}

func cancellationStatusPtr(status model.CancellationStatus) *model.CancellationStatus {
	return &status
}

func TestPlanCancellationRequestByStudent(t *testing.T) {
	session := confirmedSession()
	student := model.Caller{ID: testStudentID, Role: model.RoleStudent, Name: "Alice"}

	step, err := planCancellationRequest(session, student, "sick")
	if err != nil {
		t.Fatalf("planCancellationRequest: %v", err)
	}

	if step.Status != model.SessionStatusConfirmed {
		t.Fatalf("student request must keep the session confirmed, got %s", step.Status)
	}
	if step.CancellationStatus != model.CancellationPendingStudent {
		t.Fatalf("expected pending_student, got %s", step.CancellationStatus)
	}
	if step.Reason == nil || *step.Reason != "sick" {
		t.Fatalf("expected reason to be stored, got %v", step.Reason)
	}
	if step.NotifyUserID != testCounselorID || step.Link != linkRequests {
		t.Fatalf("expected counselor notification with requests link, got %+v", step)
	}
}

func TestPlanCancellationRequestByCounselorCancelsImmediately(t *testing.T) {
	session := confirmedSession()
	counselor := model.Caller{ID: testCounselorID, Role: model.RoleCounselor}

	step, err := planCancellationRequest(session, counselor, "conference")
	if err != nil {
		t.Fatalf("planCancellationRequest: %v", err)
	}

	if step.Status != model.SessionStatusCanceled || step.CancellationStatus != model.CancellationApproved {
		t.Fatalf("expected canceled/approved, got %s/%s", step.Status, step.CancellationStatus)
	}
	if step.NotifyUserID != testStudentID || step.Link != linkHistory {
		t.Fatalf("expected student notification with history link, got %+v", step)
	}
}

func TestPlanCancellationRequestErrors(t *testing.T) {
	student := model.Caller{ID: testStudentID, Role: model.RoleStudent}

	tests := []struct {
		name    string
		mutate  func(*model.CounselingSession)
		caller  model.Caller
		wantErr error
	}{
		{
			name:    "outsider",
			caller:  model.Caller{ID: 99, Role: model.RoleStudent},
			wantErr: ErrForbidden,
		},
		{
			name:    "admin is not a participant",
			caller:  model.Caller{ID: 1, Role: model.RoleAdmin},
			wantErr: ErrForbidden,
		},
		{
			name:    "pending session",
			mutate:  func(s *model.CounselingSession) { s.Status = model.SessionStatusPending },
			caller:  student,
			wantErr: ErrInvalidState,
		},
		{
			name:    "already canceled",
			mutate:  func(s *model.CounselingSession) { s.Status = model.SessionStatusCanceled },
			caller:  student,
			wantErr: ErrInvalidState,
		},
		{
			name: "repeat request",
			mutate: func(s *model.CounselingSession) {
				s.CancellationStatus = cancellationStatusPtr(model.CancellationPendingStudent)
			},
			caller:  student,
			wantErr: ErrInvalidState,
		},
		{
			name:    "student id with counselor role",
			caller:  model.Caller{ID: testStudentID, Role: model.RoleCounselor},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := confirmedSession()
			if tt.mutate != nil {
				tt.mutate(session)
			}

			_, err := planCancellationRequest(session, tt.caller, "reason")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPlanApproval(t *testing.T) {
	counselor := model.Caller{ID: testCounselorID, Role: model.RoleCounselor}
	reason := "sick"

	session := confirmedSession()
	session.CancellationStatus = cancellationStatusPtr(model.CancellationPendingStudent)
	session.CancellationReason = &reason

	step, err := planApproval(session, counselor)
	if err != nil {
		t.Fatalf("planApproval: %v", err)
	}
	if step.Status != model.SessionStatusCanceled || step.CancellationStatus != model.CancellationApproved {
		t.Fatalf("expected canceled/approved, got %s/%s", step.Status, step.CancellationStatus)
	}
	if step.Reason == nil || *step.Reason != reason {
		t.Fatalf("expected the student's reason to be kept, got %v", step.Reason)
	}
	if step.NotifyUserID != testStudentID {
		t.Fatalf("expected student to be notified, got %d", step.NotifyUserID)
	}
}

func TestPlanApprovalErrors(t *testing.T) {
	pending := confirmedSession()
	pending.CancellationStatus = cancellationStatusPtr(model.CancellationPendingStudent)

	if _, err := planApproval(pending, model.Caller{ID: 77, Role: model.RoleCounselor}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another counselor, got %v", err)
	}

	counselor := model.Caller{ID: testCounselorID, Role: model.RoleCounselor}
	if _, err := planApproval(confirmedSession(), counselor); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state without a request, got %v", err)
	}

	approved := confirmedSession()
	approved.Status = model.SessionStatusCanceled
	approved.CancellationStatus = cancellationStatusPtr(model.CancellationApproved)
	if _, err := planApproval(approved, counselor); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state for a second approval, got %v", err)
	}
}
