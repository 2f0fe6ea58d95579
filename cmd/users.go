package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/directory"
)

var usersRole string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the registered admins, stewards and sales agents",
	Long:  `List, add, edit and remove the participants allowed to talk to the bot.`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE:  runUsersList,
}

var usersAddCmd = &cobra.Command{
	Use:   "add [name] [number]",
	Short: "Register a user; prompts for anything not given",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runUsersAdd,
}

var usersEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change a user's name or role interactively",
	RunE:  runUsersEdit,
}

var usersRemoveCmd = &cobra.Command{
	Use:   "remove <number>",
	Short: "Remove a user together with their samples",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersRemove,
}

func init() {
	usersAddCmd.Flags().StringVar(&usersRole, "role", "", "role: admin, steward or agent")
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersEditCmd, usersRemoveCmd)
	rootCmd.AddCommand(usersCmd)
}

// withDirectory opens the database for a users subcommand.
func withDirectory(fn func(ctx context.Context, store *directory.Store, trail *audit.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, _, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, directory.NewStore(database), audit.NewStore(database))
}

func runUsersList(cmd *cobra.Command, args []string) error {
	return withDirectory(func(ctx context.Context, store *directory.Store, trail *audit.Store) error {
		users, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No users registered. Use `amostras users add` to register one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tROLE\tNUMBER\tSINCE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Name, u.Role.Label(), u.Number(), u.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	})
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	return withDirectory(func(ctx context.Context, store *directory.Store, trail *audit.Store) error {
		var name, number string
		if len(args) > 0 {
			name = args[0]
		}
		if len(args) > 1 {
			number = args[1]
		}

		var err error
		if name == "" {
			if name, err = (&promptui.Prompt{Label: "Full name", Validate: required}).Run(); err != nil {
				return err
			}
		}
		if number == "" {
			if number, err = (&promptui.Prompt{Label: "Number (digits only, e.g. 5543999990000)", Validate: validNumber}).Run(); err != nil {
				return err
			}
		}
		number = strings.TrimSpace(number)
		if !directory.ValidNumber(number) {
			return fmt.Errorf("invalid number %q: digits only", number)
		}

		role := directory.Role(usersRole)
		if role == "" {
			if role, err = selectRole("Role"); err != nil {
				return err
			}
		}
		if !role.Valid() {
			return fmt.Errorf("invalid role %q", role)
		}

		p := directory.Participant{ID: directory.Address(number), Name: strings.TrimSpace(name), Role: role}
		if err := store.Create(ctx, p); err != nil {
			if errors.Is(err, directory.ErrExists) {
				return fmt.Errorf("number %s is already registered", number)
			}
			return err
		}
		recordCLI(ctx, trail, audit.Entry{
			Action:    audit.ActionParticipantAdded,
			SubjectID: p.ID,
			Summary:   p.Name + " added",
			NewValue:  string(role),
		})
		fmt.Printf("User %q (%s) added.\n", p.Name, role.Label())
		return nil
	})
}

func runUsersEdit(cmd *cobra.Command, args []string) error {
	return withDirectory(func(ctx context.Context, store *directory.Store, trail *audit.Store) error {
		users, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users registered to edit.")
			return nil
		}

		items := make([]string, len(users))
		for i, u := range users {
			items[i] = fmt.Sprintf("%s (%s) - %s", u.Name, u.Role.Label(), u.Number())
		}
		idx, _, err := (&promptui.Select{Label: "User to edit", Items: items}).Run()
		if err != nil {
			return err
		}
		target := users[idx]

		field, _, err := (&promptui.Select{Label: "Change", Items: []string{"Name", "Role"}}).Run()
		if err != nil {
			return err
		}
		name, role := target.Name, target.Role
		if field == 0 {
			if name, err = (&promptui.Prompt{Label: "New name", Default: target.Name, Validate: required}).Run(); err != nil {
				return err
			}
			name = strings.TrimSpace(name)
		} else {
			if role, err = selectRole("New role"); err != nil {
				return err
			}
		}

		if err := store.Update(ctx, target.ID, name, role); err != nil {
			return err
		}
		recordCLI(ctx, trail, audit.Entry{
			Action:        audit.ActionParticipantUpdated,
			SubjectID:     target.ID,
			Summary:       name + " updated",
			PreviousValue: fmt.Sprintf("%s/%s", target.Name, target.Role),
			NewValue:      fmt.Sprintf("%s/%s", name, role),
		})
		fmt.Printf("User %q updated.\n", name)
		return nil
	})
}

func runUsersRemove(cmd *cobra.Command, args []string) error {
	return withDirectory(func(ctx context.Context, store *directory.Store, trail *audit.Store) error {
		id := directory.Address(args[0])
		p, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("no user with number %s", directory.Number(id))
		}
		if _, err := (&promptui.Prompt{
			Label:     fmt.Sprintf("Remove %s and all their samples", p.Name),
			IsConfirm: true,
		}).Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
		if _, err := store.Delete(ctx, id); err != nil {
			return err
		}
		recordCLI(ctx, trail, audit.Entry{
			Action:        audit.ActionParticipantRemoved,
			SubjectID:     p.ID,
			Summary:       p.Name + " removed",
			PreviousValue: string(p.Role),
		})
		fmt.Printf("User %q removed.\n", p.Name)
		return nil
	})
}

func selectRole(label string) (directory.Role, error) {
	roles := []directory.Role{directory.RoleAgent, directory.RoleSteward, directory.RoleAdmin}
	items := make([]string, len(roles))
	for i, r := range roles {
		items[i] = r.Label()
	}
	idx, _, err := (&promptui.Select{Label: label, Items: items}).Run()
	if err != nil {
		return "", err
	}
	return roles[idx], nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validNumber(s string) error {
	if !directory.ValidNumber(strings.TrimSpace(s)) {
		return errors.New("digits only")
	}
	return nil
}
