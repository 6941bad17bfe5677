package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:     "user",
	GroupID: "account",
	Short:   "Manage accounts and the active session",
	Long: `Register accounts, sign in and out, and inspect the session.

At most one account is signed in at a time. Signing in scopes the
working set to that account's tasks; signing out restores the unowned
demo board.`,
}

var userRegisterCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		u, err := env.store.Register(args[0])
		if err != nil {
			return err
		}
		if _, err := env.store.Login(u.Username); err != nil {
			return err
		}
		fmt.Printf("Registered and signed in as %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in as an existing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		u, err := env.store.Login(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", u.Username)
		fmt.Printf("%d tasks visible\n", len(env.store.Tasks()))
		return nil
	},
}

var userLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		if !env.store.LoggedIn() {
			fmt.Println("Not signed in")
			return nil
		}

		env.store.Logout()
		fmt.Println("Signed out")
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		users := env.store.Users()
		if len(users) == 0 {
			fmt.Println("No accounts registered")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%-36s  %s\n", u.ID, u.Username)
		}
		return nil
	},
}

var userWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		u := env.store.ActiveUser()
		if u == nil {
			fmt.Println("Not signed in")
			return nil
		}
		fmt.Printf("%s (%s)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userRegisterCmd)
	userCmd.AddCommand(userLoginCmd)
	userCmd.AddCommand(userLogoutCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userWhoamiCmd)
	rootCmd.AddCommand(userCmd)
}
