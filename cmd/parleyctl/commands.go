package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/form"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
)

func (e *env) status(ctx context.Context) error {
	st, err := e.client.Stats(ctx)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(st)
		return nil
	}
	fmt.Printf("Uptime:        %s\n", st.Uptime.Round(time.Second))
	fmt.Printf("Users:         %d (%d online)\n", st.Users, st.Online)
	fmt.Printf("Chats:         %d\n", st.Chats)
	fmt.Printf("Messages:      %d\n", st.Messages)
	fmt.Printf("Subscriptions: %d\n", st.Subscriptions)
	return nil
}

func (e *env) auth(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "logout":
		if err := e.sess.Restore(ctx); err != nil {
			return err
		}
		if e.sess.Identity() == nil {
			fmt.Println("Not signed in.")
			return nil
		}
		if err := e.sess.SignOut(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	case "login":
		if len(args) != 1 {
			return usageError("login <email>")
		}
	case "signup":
		if len(args) < 1 {
			return usageError("signup <email> [display name]")
		}
	}

	password, err := prompt("Password: ")
	if err != nil {
		return err
	}
	f := form.Login{
		Email:       args[0],
		Password:    password,
		DisplayName: strings.Join(args[1:], " "),
		Register:    cmd == "signup",
	}
	if err := f.Validate(); err != nil {
		return err
	}

	var id *model.Identity
	if f.Register {
		id, err = e.sess.SignUp(ctx, f.Email, f.Password, f.DisplayName)
	} else {
		id, err = e.sess.SignIn(ctx, f.Email, f.Password)
	}
	if err != nil {
		return errors.New(authn.LoginMessage(err))
	}
	fmt.Printf("Logged in successfully as %s (%s)\n", id.FallbackName(), id.UID)
	return nil
}

func (e *env) whoami(_ context.Context) error {
	id := e.sess.Identity()
	if id == nil {
		return errors.New("not signed in (use parleyctl login)")
	}
	if e.jsonOut {
		outputJSON(id)
		return nil
	}
	fmt.Printf("UID:   %s\n", id.UID)
	fmt.Printf("Email: %s\n", id.Email)
	fmt.Printf("Name:  %s\n", id.FallbackName())
	return nil
}

// first takes the initial snapshot of a subscription and cancels it.
func first[T any](s *live.Stream[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	defer s.Cancel()
	select {
	case v := <-s.C():
		return v, nil
	case <-s.Done():
		if err := s.Err(); err != nil {
			return zero, err
		}
		return zero, errors.New("subscription closed")
	}
}

func (e *env) users(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	online := fs.Bool("online", false, "only online users")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		users []model.UserProfile
		err   error
	)
	if *online {
		users, err = first(e.msg.SubscribeOnlineUsers(ctx))
	} else {
		users, err = first(e.msg.SubscribeAllUsers(ctx))
	}
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(users)
		return nil
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}
	for _, u := range users {
		marker := " "
		if u.IsOnline {
			marker = "●"
		}
		fmt.Printf("%s %-24s %-28s %-8s %s\n", marker, u.DisplayName, u.Email, u.Status, u.UID)
	}
	return nil
}

func (e *env) chats(ctx context.Context) error {
	chats, err := first(e.msg.SubscribeUserChats(ctx))
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(chats)
		return nil
	}
	if len(chats) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}
	me := e.sess.Identity().UID
	for _, c := range chats {
		fmt.Printf("%-24s %-40s %s  (%s)\n",
			c.DisplayNameFor(me), c.Preview(40), c.LastMessageTime.Local().Format("Jan 02 15:04"), c.OtherParticipant(me))
	}
	return nil
}

func (e *env) send(ctx context.Context, to, text string) error {
	m, err := e.msg.SendMessage(ctx, to, text)
	if err != nil && m == nil {
		return err
	}
	if e.jsonOut {
		outputJSON(m)
	} else {
		fmt.Printf("Sent %s to %s\n", m.ID, m.ChatID)
	}
	// The message is stored even when the summary update failed.
	return err
}

func (e *env) history(ctx context.Context, other string) error {
	msgs, err := first(e.msg.SubscribeMessages(ctx, other))
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(msgs)
		return nil
	}
	if len(msgs) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("Jan 02 15:04"), m.SenderName, m.Text)
	}
	return nil
}

func (e *env) profileCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("profile <show|set|photo>")
	}
	me := e.sess.Identity()
	if me == nil {
		return errors.New("not signed in (use parleyctl login)")
	}
	switch args[0] {
	case "show":
		uid := me.UID
		if len(args) > 1 {
			uid = args[1]
		}
		p, err := e.profile.GetProfile(ctx, uid)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("no profile for %s", uid)
		}
		if e.jsonOut {
			outputJSON(p)
			return nil
		}
		fmt.Printf("Name:   %s\n", p.DisplayName)
		fmt.Printf("Email:  %s\n", p.Email)
		fmt.Printf("Status: %s (online: %v)\n", p.Status, p.IsOnline)
		fmt.Printf("Phone:  %s\n", p.PhoneNumber)
		fmt.Printf("Bio:    %s\n", p.Bio)
		fmt.Printf("Photo:  %s\n", p.PhotoURL)
		return nil
	case "set":
		current, err := e.profile.GetProfile(ctx, me.UID)
		if err != nil {
			return err
		}
		f := form.ProfileOf(current)
		fs := flag.NewFlagSet("profile set", flag.ContinueOnError)
		fs.StringVar(&f.DisplayName, "name", f.DisplayName, "display name")
		fs.StringVar(&f.Bio, "bio", f.Bio, "bio")
		fs.StringVar(&f.Phone, "phone", f.Phone, "phone number")
		status := fs.String("status", string(f.Status), "online, away, busy or offline")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		f.Status = model.Status(*status)
		u, err := f.Update()
		if err != nil {
			return err
		}
		if err := e.profile.UpdateProfile(ctx, me.UID, u); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		fmt.Println("Profile updated successfully")
		return nil
	case "photo":
		if len(args) != 2 {
			return usageError("profile photo <file|-rm>")
		}
		if args[1] == "-rm" {
			if err := e.profile.RemovePhoto(ctx); err != nil {
				return err
			}
			fmt.Println("Photo removed")
			return nil
		}
		url, err := e.profile.UploadPhotoFile(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Photo uploaded: %s\n", url)
		return nil
	}
	return usageError("profile <show|set|photo>")
}

func (e *env) passwd(ctx context.Context) error {
	var f form.Password
	var err error
	if f.Current, err = prompt("Current password: "); err != nil {
		return err
	}
	if f.New, err = prompt("New password: "); err != nil {
		return err
	}
	if f.Confirm, err = prompt("Confirm new password: "); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if err := e.profile.ChangePassword(ctx, f.Current, f.New); err != nil {
		return fmt.Errorf("failed to change password: %s", authn.ProfileMessage(err))
	}
	fmt.Println("Password changed successfully")
	return nil
}

func (e *env) email(ctx context.Context, newEmail string) error {
	password, err := prompt("Password: ")
	if err != nil {
		return err
	}
	f := form.Email{NewEmail: newEmail, Password: password}
	if err := f.Validate(); err != nil {
		return err
	}
	if err := e.profile.ChangeEmail(ctx, strings.TrimSpace(f.NewEmail), f.Password); err != nil {
		return fmt.Errorf("failed to change email: %s", authn.ProfileMessage(err))
	}
	fmt.Println("Email changed successfully")
	return nil
}
