package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"learnhub/internal/app"
	"learnhub/pkg/domain"
)

var errUsage = errors.New("invalid arguments, run with -h for usage")

type message struct {
	Message string `json:"message"`
}

// run executes one command and returns the value to print.
func run(ctx context.Context, a *app.App, args []string) (any, error) {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		fs := newFlagSet(cmd)
		username := fs.String("username", "", "")
		password := fs.String("password", "", "")
		if err := fs.Parse(rest); err != nil {
			return nil, errUsage
		}
		return a.Login(ctx, *username, *password)

	case "register":
		fs := newFlagSet(cmd)
		var in app.RegisterInput
		var role string
		fs.StringVar(&in.Name, "name", "", "")
		fs.StringVar(&in.Username, "username", "", "")
		fs.StringVar(&in.Password, "password", "", "")
		fs.StringVar(&in.ConfirmPassword, "confirm", "", "")
		fs.StringVar(&role, "role", string(domain.RoleStudent), "")
		if err := fs.Parse(rest); err != nil {
			return nil, errUsage
		}
		in.Role = domain.UserRole(strings.ToLower(strings.TrimSpace(role)))
		return a.Register(ctx, in)

	case "logout":
		if err := a.Logout(ctx); err != nil {
			return nil, err
		}
		return message{Message: "logged out"}, nil

	case "whoami":
		sess, ok, err := a.Session(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, app.ErrNotLoggedIn
		}
		return struct {
			Role domain.UserRole `json:"role"`
		}{sess.Role}, nil

	case "profile":
		return a.Profile(ctx)

	case "courses":
		fs := newFlagSet(cmd)
		query := fs.String("q", "", "")
		if err := fs.Parse(rest); err != nil {
			return nil, errUsage
		}
		return a.Courses(ctx, *query)

	case "course", "enroll", "delete":
		if len(rest) != 1 {
			return nil, errUsage
		}
		switch cmd {
		case "course":
			return a.Course(ctx, rest[0])
		case "enroll":
			return a.Enroll(ctx, rest[0])
		default:
			return a.DeleteCourse(ctx, rest[0])
		}

	case "enrolled":
		return a.EnrolledCourses(ctx)

	case "my-courses":
		return a.InstructorCourses(ctx)

	case "create":
		in, err := parseCourseInput(cmd, rest)
		if err != nil {
			return nil, err
		}
		return a.CreateCourse(ctx, in)

	case "update":
		if len(rest) < 1 {
			return nil, errUsage
		}
		in, err := parseCourseInput(cmd, rest[1:])
		if err != nil {
			return nil, err
		}
		return a.UpdateCourse(ctx, rest[0], in)

	case "interests":
		if len(rest) == 0 {
			interests, err := a.Interests(ctx)
			if err != nil {
				return nil, err
			}
			return struct {
				Interests string `json:"interests"`
			}{interests}, nil
		}
		if err := a.SaveInterests(ctx, strings.Join(rest, " ")); err != nil {
			return nil, err
		}
		return message{Message: "interests saved"}, nil

	case "recommend", "home":
		fs := newFlagSet(cmd)
		refresh := fs.Bool("refresh", false, "")
		if err := fs.Parse(rest); err != nil {
			return nil, errUsage
		}
		if cmd == "home" {
			return a.Home(ctx, *refresh)
		}
		return a.Recommendations(ctx, *refresh)

	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func parseCourseInput(cmd string, args []string) (domain.CourseInput, error) {
	fs := newFlagSet(cmd)
	var in domain.CourseInput
	fs.StringVar(&in.Title, "title", "", "")
	fs.StringVar(&in.Description, "description", "", "")
	fs.StringVar(&in.Content, "content", "", "")
	if err := fs.Parse(args); err != nil {
		return in, errUsage
	}
	return in, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
