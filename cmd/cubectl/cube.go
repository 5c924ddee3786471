package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cube-panel/models"
	"cube-panel/reminders"
	"cube-panel/when"
)

func (a *app) printReminders(list []models.Reminder) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No reminders")
		return
	}
	for _, r := range list {
		mark := ""
		if r.Fired {
			mark = "  (done)"
		}
		fmt.Fprintf(a.out, "%3d  %s  %s%s\n", r.ID, r.DueAt().Format("Mon Jan 2 15:04"), r.Text, mark)
	}
}

func (a *app) reminders(ctx context.Context, args []string) error {
	svc := reminders.New(a.client)
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	parser := when.Parser{Now: a.now}

	switch sub {
	case "list", "ls":
		list, err := svc.List(ctx)
		if err != nil {
			return err
		}
		a.printReminders(list)
		return nil

	case "add":
		fs := newFlags("reminders add")
		phrase := fs.String("when", "", `e.g. "in 10m", "in 1h30m", "tomorrow 7:30am", "today 19:00"`)
		at := fs.String("at", "", "time of day HH:MM, used when -when does not match")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		text := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if text == "" {
			return errUsage
		}
		due := parser.Parse(*phrase, *at)
		list, err := svc.Add(ctx, due, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Reminder set for %s\n", due.Format("Mon Jan 2 15:04"))
		a.printReminders(list)
		return nil

	case "edit":
		fs := newFlags("reminders edit")
		id := fs.Int64("id", 0, "reminder id")
		phrase := fs.String("when", "", "new due phrase")
		at := fs.String("at", "", "new time of day HH:MM")
		if err := fs.Parse(args); err != nil || *id <= 0 {
			return errUsage
		}
		list, err := svc.List(ctx)
		if err != nil {
			return err
		}
		var cur *models.Reminder
		for i := range list {
			if list[i].ID == *id {
				cur = &list[i]
			}
		}
		if cur == nil {
			return fmt.Errorf("reminder %d not found", *id)
		}
		text := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if text == "" {
			text = cur.Text
		}
		due := cur.DueAt()
		if *phrase != "" || *at != "" {
			due = parser.Parse(*phrase, *at)
		}
		list, err = svc.Update(ctx, *id, due, text)
		if err != nil {
			return err
		}
		a.printReminders(list)
		return nil

	case "rm", "delete":
		fs := newFlags("reminders rm")
		id := fs.Int64("id", 0, "reminder id")
		if err := fs.Parse(args); err != nil || *id <= 0 {
			return errUsage
		}
		list, err := svc.Delete(ctx, *id)
		if err != nil {
			return err
		}
		a.printReminders(list)
		return nil

	case "export":
		fs := newFlags("reminders export")
		path := fs.String("o", "", "write to file instead of stdout")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if *path == "" {
			return svc.Export(ctx, a.out)
		}
		f, err := os.Create(*path)
		if err != nil {
			return err
		}
		if err := svc.Export(ctx, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Exported reminders to", *path)
		return nil
	}
	return errUsage
}

func (a *app) send(ctx context.Context, args []string) error {
	fs := newFlags("send")
	to := fs.String("to", "", "target cube")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	msg := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *to == "" || msg == "" {
		return errUsage
	}
	if err := a.client.SendMessage(ctx, *to, msg); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sent to", *to)
	return nil
}

func (a *app) messages(ctx context.Context) error {
	msgs, err := a.client.Messages(ctx)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages")
		return nil
	}
	for _, m := range msgs {
		fmt.Fprintf(a.out, "%s  %-4s  → %s: %s\n", m.Time.Local().Format("15:04:05"), m.Status, m.Target, m.Message)
	}
	return nil
}

func (a *app) personality(ctx context.Context, args []string) error {
	if len(args) == 0 {
		p, mood, err := a.client.Personality(ctx)
		if err != nil {
			return err
		}
		for _, trait := range models.PersonalityTraits {
			v, _ := p.Get(trait)
			fmt.Fprintf(a.out, "%-15s %2d  %s\n", trait, v, strings.Repeat("■", v))
		}
		fmt.Fprintln(a.out, "mood:", mood)
		return nil
	}

	if args[0] != "set" || len(args) != 3 {
		return errUsage
	}
	v, err := strconv.Atoi(args[2])
	if err != nil {
		return errUsage
	}
	if err := a.client.SetPersonality(ctx, args[1], v); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s set to %d\n", args[1], v)
	return nil
}

func (a *app) trigger(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.client.Trigger(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Triggered", args[0])
	return nil
}
