package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var staffPassword string

var accountCreateStaffCmd = &cobra.Command{
	Use:   "create-staff <email>",
	Short: "Create an active staff account",
	Long:  `Create an already active staff account. The password is taken from --password or read from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := staffPassword
		if password == "" {
			var err error
			if password, err = readPassword(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		accounts, err := newAccountService(cfg, db)
		if err != nil {
			return err
		}

		account, err := accounts.CreateStaffAccount(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "id: %d\n", account.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "email: %s\n", account.Email)
		return nil
	},
}

func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(input, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func init() {
	accountCreateStaffCmd.Flags().StringVar(&staffPassword, "password", os.Getenv("STAFF_PASSWORD"), "password of the new account")
	accountCmd.AddCommand(accountCreateStaffCmd)
	rootCmd.AddCommand(accountCmd)
}
