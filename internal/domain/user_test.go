package domain

import "testing"

func TestUserSideRecordPredicates(t *testing.T) {
	var nilUser *User
	if nilUser.PendingActivation() || nilUser.ResetPending() || nilUser.StravaLinked() {
		t.Fatal("nil user has no side records")
	}

	pending := &User{Activation: &Activation{Nonce: "n"}}
	if !pending.PendingActivation() {
		t.Fatal("inactive user with activation row is pending")
	}
	pending.IsActive = true
	if pending.PendingActivation() {
		t.Fatal("active user is never pending")
	}

	u := &User{IsActive: true}
	if u.ResetPending() {
		t.Fatal("no reset row means no reset pending")
	}
	u.PasswordReset = &PasswordReset{Nonce: "n"}
	if !u.ResetPending() {
		t.Fatal("reset row means reset pending")
	}
	u.ThirdPartyLink = &ThirdPartyLink{}
	if !u.StravaLinked() {
		t.Fatal("link row means strava linked")
	}
}
