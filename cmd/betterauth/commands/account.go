package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"betterauth/internal/crypto"
)

const mnemonicEnv = "BETTERAUTH_RECOVERY_PHRASE"

// recoveryFlags are shared by commands that take or produce recovery phrases.
type recoveryFlags struct {
	mnemonic   string
	passphrase string
}

func (f *recoveryFlags) bind(cmd *cobra.Command, usage string) {
	cmd.Flags().StringVar(&f.mnemonic, "phrase", "", usage+" (or $"+mnemonicEnv+")")
	cmd.Flags().StringVar(&f.passphrase, "phrase-passphrase", "", "optional passphrase extending the recovery phrase")
}

func (f *recoveryFlags) phrase() (string, error) {
	if f.mnemonic != "" {
		return f.mnemonic, nil
	}
	if m := os.Getenv(mnemonicEnv); m != "" {
		return m, nil
	}
	return "", fmt.Errorf("recovery phrase required (--phrase or $%s)", mnemonicEnv)
}

// newPhrase generates a recovery phrase and prints it once.
func newPhrase(alg crypto.Algorithm, passphrase string) (hash string, err error) {
	mnemonic, err := crypto.NewRecoveryPhrase()
	if err != nil {
		return "", err
	}
	key, err := crypto.RecoveryKey(alg, mnemonic, passphrase)
	if err != nil {
		return "", err
	}
	pub, err := key.Public()
	if err != nil {
		return "", err
	}
	fmt.Printf("Recovery phrase (write it down, it is not stored):\n\n  %s\n\n", mnemonic)
	return crypto.Blake3{}.Sum([]byte(pub)), nil
}

func recoveryPhraseCmd() *cobra.Command {
	var rf recoveryFlags
	cmd := &cobra.Command{
		Use:   "recovery-phrase",
		Short: "Generate a recovery phrase and print its hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := crypto.ParseAlgorithm(cfg.Algorithm)
			if err != nil {
				return err
			}
			hash, err := newPhrase(alg, rf.passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Recovery hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&rf.passphrase, "phrase-passphrase", "", "optional passphrase extending the recovery phrase")
	return offline(cmd)
}

func createAccountCmd() *cobra.Command {
	var rf recoveryFlags
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Register a new identity bound to a recovery phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := recoveryHash(&rf)
			if err != nil {
				return err
			}
			identity, err := appCtx.CreateAccount(cmd.Context(), hash)
			if err != nil {
				return err
			}
			fmt.Printf("Account created.\nIdentity: %s\n", identity)
			return nil
		},
	}
	rf.bind(cmd, "existing recovery phrase to bind; a new one is generated when empty")
	return cmd
}

// recoveryHash hashes the phrase in rf, or generates a new phrase when none
// was given.
func recoveryHash(rf *recoveryFlags) (string, error) {
	if mnemonic, err := rf.phrase(); err == nil {
		_, hash, err := appCtx.RecoveryKey(mnemonic, rf.passphrase)
		return hash, err
	}
	return newPhrase(appCtx.Wire().Algorithm, rf.passphrase)
}

func recoverCmd() *cobra.Command {
	var rf recoveryFlags
	var nextPassphrase string
	cmd := &cobra.Command{
		Use:   "recover <identity>",
		Short: "Take over an identity on this device with its recovery phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, err := rf.phrase()
			if err != nil {
				return err
			}
			key, _, err := appCtx.RecoveryKey(mnemonic, rf.passphrase)
			if err != nil {
				return err
			}
			next, err := newPhrase(appCtx.Wire().Algorithm, nextPassphrase)
			if err != nil {
				return err
			}
			if err := appCtx.RecoverAccount(cmd.Context(), args[0], key, next); err != nil {
				return err
			}
			fmt.Println("Account recovered; the phrase above replaces the old one.")
			return nil
		},
	}
	rf.bind(cmd, "current recovery phrase")
	cmd.Flags().StringVar(&nextPassphrase, "next-phrase-passphrase", "", "optional passphrase for the replacement phrase")
	return cmd
}

func changeRecoveryCmd() *cobra.Command {
	var passphrase string
	cmd := &cobra.Command{
		Use:   "change-recovery",
		Short: "Replace the recovery phrase of the identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := newPhrase(appCtx.Wire().Algorithm, passphrase)
			if err != nil {
				return err
			}
			if err := appCtx.ChangeRecoveryKey(cmd.Context(), hash); err != nil {
				return err
			}
			fmt.Println("Recovery phrase changed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "phrase-passphrase", "", "optional passphrase extending the new phrase")
	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the identity on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}
			identity, err := appCtx.Identity()
			if err != nil {
				return err
			}
			if err := appCtx.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Deleted %s.\n", identity)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
