package types

import "testing"

func TestStatementTypeFromCode(t *testing.T) {
	tests := []struct {
		code string
		want StatementType
	}{
		{"SPEECH", StatementSpeech},
		{"INTERVIEW", StatementInterview},
		{"PRESS", StatementPressRelease},
		{"DEBATE", StatementDebate},
		{"ASSEMBLY", StatementAssemblySpeech},
		{"COMMITTEE", StatementCommitteeSpeech},
		{"MEDIA", StatementMediaComment},
		{"SNS", StatementSocialMedia},
		{"UNKNOWN_CODE", StatementOther},
		{"", StatementOther},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatementTypeFromCode(tt.code); got != tt.want {
				t.Errorf("StatementTypeFromCode(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestBatchResult_Total(t *testing.T) {
	tests := []struct {
		name   string
		result BatchResult
		want   int
	}{
		{"empty", BatchResult{}, 0},
		{"successes only", BatchResult{SuccessCount: 3}, 3},
		{"mixed", BatchResult{SuccessCount: 3, FailCount: 2}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Total(); got != tt.want {
				t.Errorf("Total() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServiceError_Error(t *testing.T) {
	err := &ServiceError{Code: "NOT_FOUND", Message: "figure not found"}
	if err.Error() != "figure not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
