package dialog

import "testing"

func TestEmailValidation(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@mail.ru",
		"a_b-c@domain.io",
	}
	invalid := []string{
		"userexample.com",
		"user@",
		"@example.com",
		"user@Example.com",
		"user@example.c0m",
		"user@example",
		"user name@example.com",
	}
	for _, s := range valid {
		if !emailRe.MatchString(s) {
			t.Errorf("expected %q to be a valid email", s)
		}
	}
	for _, s := range invalid {
		if emailRe.MatchString(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestPhoneValidation(t *testing.T) {
	valid := []string{
		"+123456",
		"+6213659876543210",
		"+79991234567",
	}
	invalid := []string{
		"79991234567",
		"+12345",
		"+62136598765432100",
		"+7 999 123",
		"+7999a234",
	}
	for _, s := range valid {
		if !phoneRe.MatchString(s) {
			t.Errorf("expected %q to be a valid phone", s)
		}
	}
	for _, s := range invalid {
		if phoneRe.MatchString(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}
