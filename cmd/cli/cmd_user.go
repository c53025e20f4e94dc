package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addUserName     string
	addUserPassword string
)

// addUserCmd creates an account without going through the HTTP API
var addUserCmd = &cobra.Command{
	Use:   "add-user <email>",
	Short: "Create a customer account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddUser,
}

func init() {
	addUserCmd.Flags().StringVarP(&addUserName, "name", "n", "", "Display name")
	addUserCmd.Flags().StringVarP(&addUserPassword, "password", "p", "", "Password, at least 6 characters")
	_ = addUserCmd.MarkFlagRequired("password")
}

func runAddUser(cmd *cobra.Command, args []string) error {
	if len(addUserPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	name := addUserName
	if name == "" {
		name = args[0]
	}
	user, err := a.Users.Register(cmd.Context(), name, args[0], addUserPassword)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", user.Email)
	return nil
}
