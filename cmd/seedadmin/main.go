// seedadmin creates (or resets) an admin account directly in the local store,
// for recovering access without a running server.
//
//	go run ./cmd/seedadmin -store tillpos.db -name Alice -password 'secret'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tillpos/internal/model"
	"tillpos/internal/storage"
)

func main() {
	storePath := flag.String("store", "tillpos.db", "path to the store file")
	name := flag.String("name", "", "admin user name")
	password := flag.String("password", "", "admin password")
	branchID := flag.String("branch", storage.DefaultBranchID, "branch to assign")
	flag.Parse()

	if *name == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: seedadmin -store <path> -name <name> -password <password>")
		os.Exit(1)
	}

	store, err := storage.Open(*storePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer store.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	err = store.Update(ctx, func(tx *storage.Tx) error {
		users, err := storage.ReadAll[model.User](ctx, tx, storage.Users)
		if err != nil {
			return err
		}
		for i := range users {
			if strings.EqualFold(users[i].Name, *name) {
				users[i].PasswordHash = string(hash)
				users[i].Role = model.RoleAdmin
				return storage.ReplaceAll(ctx, tx, storage.Users, users)
			}
		}
		users = append(users, model.User{
			ID:           uuid.NewString(),
			Name:         *name,
			PasswordHash: string(hash),
			Role:         model.RoleAdmin,
			BranchIDs:    []string{*branchID},
		})
		return storage.ReplaceAll(ctx, tx, storage.Users, users)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed admin:", err)
		os.Exit(1)
	}
	fmt.Printf("admin %q ready\n", *name)
}
