// Command inspector checks the ledger's solvency invariant against a
// Postgres-backed store: for every custodied token the sum of available
// balances must not exceed the custodied total.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/bank"
	"github.com/GoPolymarket/premarket/internal/config"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/ledger"
	"github.com/GoPolymarket/premarket/internal/repository"
)

func main() {
	dsn := flag.String("dsn", "", "Postgres DSN (defaults to database.dsn from config)")
	token := flag.String("token", "", "check a single token instead of every custodied token")
	asJSON := flag.Bool("json", false, "print reports as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	os.Exit(run(*dsn, *token, *asJSON, *timeout))
}

func run(dsn, token string, asJSON bool, timeout time.Duration) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if cfg.Database.DSN == "" {
		fmt.Fprintln(os.Stderr, "no database configured: pass -dsn or set database.dsn")
		return 2
	}

	db, err := repository.NewDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		return 2
	}
	defer db.Close()
	st, err := repository.NewPostgresStore(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		return 2
	}
	vault := ledger.NewVault(cfg.VaultModule(), st, bank.NewStoreBank(), host.NopSink{})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var reports []*ledger.SolvencyReport
	if token != "" {
		if !common.IsHexAddress(token) {
			fmt.Fprintf(os.Stderr, "invalid token address %q\n", token)
			return 2
		}
		r, err := vault.CheckSolvency(ctx, common.HexToAddress(token))
		if err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)
			return 2
		}
		reports = append(reports, r)
	} else {
		reports, err = vault.CheckAllSolvency(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)
			return 2
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(reports)
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tACCOUNTS\tAVAILABLE\tCUSTODIED\tLOCKED\tSOLVENT")
		for _, r := range reports {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%t\n", r.Token.Hex(), r.Accounts, r.TotalAvailable, r.TotalCustodied, r.Locked, r.Solvent)
		}
		_ = w.Flush()
	}

	for _, r := range reports {
		if !r.Solvent {
			return 1
		}
	}
	return 0
}
