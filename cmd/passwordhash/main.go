// Command passwordhash prints the argon2id hash for ADMIN_OWNER_PASSWORD_HASH
// and, with -totp, a fresh secret for ADMIN_OWNER_TOTP_SECRET.
//
//	echo -n 'owner password' | passwordhash -totp
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/scripthub/pkg/cryptox"
	"github.com/pquerna/otp/totp"
)

const minPasswordLen = 8

func main() {
	withTOTP := flag.Bool("totp", false, "also generate a TOTP secret")
	issuer := flag.String("issuer", "scripthub", "TOTP issuer shown in authenticator apps")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *withTOTP, *issuer); err != nil {
		fmt.Fprintln(os.Stderr, "passwordhash:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, withTOTP bool, issuer string) error {
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ADMIN_OWNER_PASSWORD_HASH='%s'\n", hash)

	if !withTOTP {
		return nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: "owner",
	})
	if err != nil {
		return fmt.Errorf("generate totp secret: %w", err)
	}
	fmt.Fprintf(out, "ADMIN_OWNER_TOTP_SECRET='%s'\n", key.Secret())
	fmt.Fprintf(out, "# otpauth URL for your authenticator app:\n# %s\n", key.URL())
	return nil
}
