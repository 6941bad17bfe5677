package schema

import "testing"

func TestChecklistStatusDisplayNames(t *testing.T) {
	tests := []struct {
		id   ChecklistStatus
		want string
	}{
		{ChecklistNotStarted, "Not Started"},
		{ChecklistInProgress, "In Progress"},
		{ChecklistBlocked, "Blocked"},
		{ChecklistFinalCheck, "Final Check"},
		{ChecklistAwaiting, "Awaiting"},
		{ChecklistDone, "Done"},
	}

	for _, tt := range tests {
		if got := tt.id.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%s) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNewChecklistStatusDerivesName(t *testing.T) {
	v := NewChecklistStatus(ChecklistFinalCheck)
	if v.Name != "Final Check" {
		t.Errorf("expected derived name, got %q", v.Name)
	}
	if err := v.Validate(); err != nil {
		t.Errorf("derived status should validate: %v", err)
	}
}

func TestChecklistStatusValueValidate(t *testing.T) {
	// Caller may omit the name
	v := ChecklistStatusValue{ID: ChecklistBlocked}
	if err := v.Validate(); err != nil {
		t.Errorf("name-less status should validate: %v", err)
	}

	// But a supplied name must agree with the id
	v = ChecklistStatusValue{ID: ChecklistBlocked, Name: "Done"}
	if err := v.Validate(); err == nil {
		t.Error("expected error for mismatched name")
	}

	v = ChecklistStatusValue{ID: "soon"}
	if err := v.Validate(); err == nil {
		t.Error("expected error for unknown status id")
	}
}

func TestChecklistStatusValueSetDefaults(t *testing.T) {
	v := ChecklistStatusValue{ID: ChecklistAwaiting}
	v.SetDefaults()
	if v.Name != "Awaiting" {
		t.Errorf("SetDefaults should fill the display name, got %q", v.Name)
	}
}

func TestNewChecklistItem(t *testing.T) {
	item := NewChecklistItem("Install reinforcement steel", "Grade 60 rebar", IconMasonry)
	if item.ID == "" {
		t.Fatal("expected generated id")
	}
	if item.Status.ID != ChecklistNotStarted {
		t.Errorf("new items start not-started, got %s", item.Status.ID)
	}
	if err := item.Validate(); err != nil {
		t.Errorf("new item should validate: %v", err)
	}
}
