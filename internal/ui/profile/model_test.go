package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui"
)

type fakeBackend struct {
	profile   *model.Profile
	refErr    error
	updates   []model.ProfileUpdate
	submitted []string
}

func (f *fakeBackend) Profile(context.Context) (*model.Profile, error) { return f.profile, nil }

func (f *fakeBackend) UpdateProfile(_ context.Context, u model.ProfileUpdate) (*model.Profile, error) {
	f.updates = append(f.updates, u)
	p := *f.profile
	if u.Name != nil {
		p.Name = *u.Name
	}
	return &p, nil
}

func (f *fakeBackend) ChangePassword(context.Context, string, string) error { return nil }

func (f *fakeBackend) SubmitGovernmentID(_ context.Context, url string) error {
	f.submitted = append(f.submitted, url)
	return nil
}

func (f *fakeBackend) ReferralStats(context.Context) (*model.ReferralStats, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return &model.ReferralStats{ReferralCode: "WORK42", TotalReferredUsers: 2}, nil
}

func (f *fakeBackend) Leaderboard(context.Context) ([]model.LeaderboardEntry, error) {
	return []model.LeaderboardEntry{{Name: "Top", Balance: model.MustAmount("90"), TasksCompleted: 30}}, nil
}

type fakeUploader struct {
	url   string
	err   error
	paths []string
}

func (f *fakeUploader) UploadFile(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.url, f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, b *fakeBackend, up Uploader) Model {
	t.Helper()
	m := New(b, up, keys.DefaultKeyMap(), "$", 100, 30)
	m, _ = m.Update(m.Load()())
	if m.Profile() == nil {
		t.Fatal("profile not loaded")
	}
	return m
}

func worker(status string) *model.Profile {
	return &model.Profile{ID: 7, Name: "Worker", Email: "w@example.com", Country: "IN", GovernmentIDStatus: status}
}

// ─── Loading ─────────────────────────────────────────────

func TestLoadJoinFailureKeepsPreviousProfile(t *testing.T) {
	b := &fakeBackend{profile: worker("")}
	m := loaded(t, b, nil)

	b.profile = &model.Profile{Name: "Someone else"}
	b.refErr = errors.New("boom")
	msg := m.Load()().(LoadedMsg)
	if msg.Err == nil || msg.Profile != nil {
		t.Fatalf("msg = %+v, want a single failure and no partial data", msg)
	}

	m, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("expected an error toast")
	}
	if m.Profile().Name != "Worker" {
		t.Errorf("name = %q, want previous profile", m.Profile().Name)
	}
}

// ─── Profile edit ────────────────────────────────────────

func TestProfileUpdateSendsOnlyChangedFields(t *testing.T) {
	m := loaded(t, &fakeBackend{profile: worker("")}, nil)
	m.openProfileForm()
	m.pb.name = "  New Name "
	m.pb.bio = "hello"

	u := m.profileUpdate()
	if u.Name == nil || *u.Name != "New Name" {
		t.Errorf("name = %v, want trimmed New Name", u.Name)
	}
	if u.Bio == nil || *u.Bio != "hello" {
		t.Errorf("bio = %v", u.Bio)
	}
	if u.Country != nil || u.Timezone != nil || u.EmailNotifications != nil {
		t.Errorf("unchanged fields sent: %+v", u)
	}
}

func TestSavedProfileIsAnnounced(t *testing.T) {
	b := &fakeBackend{profile: worker("")}
	m := loaded(t, b, nil)
	m.openProfileForm()
	m.pb.name = "Renamed"

	m, cmd := m.submitForm()
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	m, cmd = m.Update(cmd())
	if m.Mode() != ModeOverview || m.Profile().Name != "Renamed" {
		t.Fatalf("mode = %v name = %q", m.Mode(), m.Profile().Name)
	}
	if len(b.updates) != 1 {
		t.Errorf("updates = %d, want 1", len(b.updates))
	}

	var announced bool
	for _, msg := range cmd().(tea.BatchMsg) {
		if u, ok := msg().(UpdatedMsg); ok && u.Profile.Name == "Renamed" {
			announced = true
		}
	}
	if !announced {
		t.Error("UpdatedMsg not emitted")
	}
}

func TestEscClosesForm(t *testing.T) {
	m := loaded(t, &fakeBackend{profile: worker("")}, nil)
	m, _ = m.Update(runes("P"))
	if m.Mode() != ModeFormPassword || !m.Capturing() {
		t.Fatalf("mode = %v, want password form", m.Mode())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Capturing() {
		t.Error("esc should close the form")
	}
}

// ─── ID verification ─────────────────────────────────────

func TestVerifyIDGate(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		wantForm  bool
		wantError bool
	}{
		{name: "not submitted", status: "", wantForm: true},
		{name: "rejected", status: model.IDStatusRejected, wantForm: true},
		{name: "pending", status: model.IDStatusPending, wantError: true},
		{name: "approved", status: model.IDStatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t, &fakeBackend{profile: worker(tt.status)}, nil)
			m, cmd := m.Update(runes("i"))
			if got := m.Mode() == ModeFormID; got != tt.wantForm {
				t.Fatalf("form open = %v, want %v", got, tt.wantForm)
			}
			if tt.wantForm {
				return
			}
			toast, ok := cmd().(ui.ToastMsg)
			if !ok || toast.IsError != tt.wantError {
				t.Errorf("toast = %#v, wantError %v", toast, tt.wantError)
			}
		})
	}
}

func TestUploadSubmitsIDAndMarksPending(t *testing.T) {
	b := &fakeBackend{profile: worker("")}
	up := &fakeUploader{url: "https://cdn.example.com/id.png"}
	m := loaded(t, b, up)

	result := m.startUpload("/tmp/id.png")
	if m.Mode() != ModeUploading {
		t.Fatalf("mode = %v, want uploading", m.Mode())
	}
	var submitted tea.Msg
	for _, c := range result().(tea.BatchMsg) {
		if msg, ok := c().(IDSubmittedMsg); ok {
			submitted = msg
		}
	}
	if submitted == nil {
		t.Fatal("no IDSubmittedMsg")
	}

	m, _ = m.Update(submitted)
	if m.Mode() != ModeUploadResult {
		t.Fatalf("mode = %v, want result", m.Mode())
	}
	if len(b.submitted) != 1 || b.submitted[0] != up.url {
		t.Errorf("submitted = %v", b.submitted)
	}
	if m.Profile().GovernmentIDStatus != model.IDStatusPending {
		t.Errorf("status = %q, want pending", m.Profile().GovernmentIDStatus)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode() != ModeOverview {
		t.Errorf("mode = %v, want overview", m.Mode())
	}
}

func TestUploadFailureSkipsSubmission(t *testing.T) {
	b := &fakeBackend{profile: worker("")}
	m := loaded(t, b, nil)

	m.mode = ModeUploading
	m, _ = m.Update(IDSubmittedMsg{Err: errors.New("too large")})
	if m.Mode() != ModeUploadResult || m.uploadErr == nil {
		t.Fatalf("mode = %v err = %v", m.Mode(), m.uploadErr)
	}
	if len(b.submitted) != 0 {
		t.Errorf("submitted = %v, want none", b.submitted)
	}
	if m.Profile().GovernmentIDStatus != "" {
		t.Errorf("status changed on failure: %q", m.Profile().GovernmentIDStatus)
	}
}

func TestCancelledUploadResultIsDropped(t *testing.T) {
	m := loaded(t, &fakeBackend{profile: worker("")}, &fakeUploader{})
	m.mode = ModeUploading
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Mode() != ModeOverview {
		t.Fatalf("mode = %v, want overview", m.Mode())
	}
	m, _ = m.Update(IDSubmittedMsg{URL: "late"})
	if m.Mode() != ModeOverview || m.Profile().GovernmentIDStatus != "" {
		t.Errorf("late result applied: mode = %v", m.Mode())
	}
}

// ─── Validators ──────────────────────────────────────────

func TestValidateImagePath(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "id.PNG")
	if err := os.WriteFile(img, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "image", path: img},
		{name: "empty", path: " ", wantErr: true},
		{name: "wrong extension", path: txt, wantErr: true},
		{name: "missing", path: filepath.Join(dir, "gone.jpg"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateImagePath(tt.path); (err != nil) != tt.wantErr {
				t.Errorf("validateImagePath(%q) = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
