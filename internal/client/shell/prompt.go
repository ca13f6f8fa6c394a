package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// prompter reads answers line by line from the shell's input.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *prompter) ask(question string) (string, bool) {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// promptCredentials asks for email and password.
func (p *prompter) promptCredentials() (email, password string, ok bool) {
	if email, ok = p.ask("Email: "); !ok {
		return "", "", false
	}
	if password, ok = p.ask("Password: "); !ok {
		return "", "", false
	}
	return email, password, true
}

// promptProfileUpdate asks for the editable profile fields. An empty name
// keeps the current one. The password change is optional.
func (p *prompter) promptProfileUpdate(current models.UserProfile) (models.ProfileUpdate, bool) {
	update := models.ProfileUpdate{Name: current.Name}

	name, ok := p.ask(fmt.Sprintf("Name [%s]: ", current.Name))
	if !ok {
		return update, false
	}
	if name != "" {
		update.Name = name
	}

	newPassword, ok := p.ask("New password (leave empty to keep): ")
	if !ok {
		return update, false
	}
	if newPassword == "" {
		return update, true
	}
	oldPassword, ok := p.ask("Current password: ")
	if !ok {
		return update, false
	}
	update.Password = newPassword
	update.OldPassword = oldPassword
	return update, true
}
