package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/basicauth/basicauth-go/internal/model"
	"github.com/basicauth/basicauth-go/internal/screen"
)

type registerCmd struct {
	app *app

	Username         string `long:"username" description:"Display name"`
	Email            string `long:"email" description:"Account email"`
	Password         string `long:"password" description:"Account password"`
	SecurityQuestion string `long:"question" description:"Security question"`
	SecurityAnswer   string `long:"answer" description:"Answer to the security question"`
}

func (c *registerCmd) Execute([]string) error {
	s := screen.NewRegisterScreen(c.app.ctx, c.app.api, c.app)
	defer s.Close()

	return outcome(s.Submit(model.RegisterRequest{
		Username:         c.Username,
		Email:            c.Email,
		Password:         c.Password,
		SecurityQuestion: c.SecurityQuestion,
		SecurityAnswer:   c.SecurityAnswer,
	}))
}

type loginCmd struct {
	app *app

	Email    string `long:"email" description:"Account email"`
	Password string `long:"password" description:"Account password"`
	NoList   bool   `long:"no-list" description:"Do not list users after logging in"`
}

func (c *loginCmd) Execute([]string) error {
	s := screen.NewLoginScreen(c.app.ctx, c.app.api, c.app.store, c.app)
	defer s.Close()

	res, err := s.Submit(model.LoginRequest{Email: c.Email, Password: c.Password})
	if err := outcome(res, err); err != nil {
		return err
	}
	if res.Route != screen.RouteUsers || c.NoList {
		return nil
	}
	return listUsers(c.app)
}

type forgotPasswordCmd struct {
	app *app

	Email          string `long:"email" description:"Account email"`
	SecurityAnswer string `long:"answer" description:"Answer to the security question"`
	NewPassword    string `long:"new-password" description:"Replacement password"`
}

func (c *forgotPasswordCmd) Execute([]string) error {
	s := screen.NewForgotPasswordScreen(c.app.ctx, c.app.api, c.app)
	defer s.Close()

	return outcome(s.Submit(model.ForgotPasswordRequest{
		Email:          c.Email,
		SecurityAnswer: c.SecurityAnswer,
		NewPassword:    c.NewPassword,
	}))
}

type usersCmd struct {
	app *app
}

func (c *usersCmd) Execute([]string) error {
	return listUsers(c.app)
}

type logoutCmd struct {
	app *app
}

func (c *logoutCmd) Execute([]string) error {
	return c.app.store.Clear(c.app.ctx)
}

func listUsers(a *app) error {
	s := screen.NewUsersScreen(a.ctx, a.api, a.store, a)
	defer s.Close()

	res, err := s.Load()
	if err != nil {
		return err
	}

	if len(res.Rows) > 0 {
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tCREATED")
		for _, r := range res.Rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Username, r.Email, r.CreatedAt)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return outcome(res.Result, nil)
}
