// Command inspect dumps the persisted lifecycle snapshots from a BadgerDB
// directory. Meant for poking at a stopped engine's state; opens the
// database read-only so a running process is left alone.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"voice-lab/domain"
	"voice-lab/repositories"
)

// Local mirrors of the snapshot payloads; cbor matches on field names.
type triggerSnapshot struct {
	Channels map[domain.CommunityID][]domain.RoomID
}

type sessionSnapshot struct {
	Rooms []domain.Room
}

type ownershipSnapshot struct {
	Records []domain.OwnershipRecord
}

func main() {
	dbPath := flag.String("db", "./badger", "Path to badger DB")
	section := flag.String("section", "all", "Which snapshot to dump: triggers, sessions, ownership, all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	want := strings.ToLower(*section)
	if want == "all" || want == "triggers" {
		dumpTriggers(db)
	}
	if want == "all" || want == "sessions" {
		dumpSessions(db)
	}
	if want == "all" || want == "ownership" {
		dumpOwnership(db)
	}
}

func dumpTriggers(db *badger.DB) {
	var snap triggerSnapshot
	if !loadSnapshot(db, repositories.KeyTriggers, &snap) {
		return
	}

	table := newTable([]string{"Community", "Trigger Channel"})
	for community, channels := range snap.Channels {
		for _, channel := range channels {
			table.Append([]string{string(community), string(channel)})
		}
	}
	printHeader("Trigger channels")
	table.Render()
}

func dumpSessions(db *badger.DB) {
	var snap sessionSnapshot
	if !loadSnapshot(db, repositories.KeySessions, &snap) {
		return
	}

	table := newTable([]string{"Room", "Community", "Trigger", "Created"})
	for _, room := range snap.Rooms {
		table.Append([]string{
			string(room.ID),
			string(room.Community),
			string(room.Trigger),
			room.CreatedAt.Format(time.RFC3339),
		})
	}
	printHeader("Spawned rooms")
	table.Render()
}

func dumpOwnership(db *badger.DB) {
	var snap ownershipSnapshot
	if !loadSnapshot(db, repositories.KeyOwnership, &snap) {
		return
	}

	table := newTable([]string{"Room", "Owner", "Type", "Created", "Last Interaction"})
	for _, rec := range snap.Records {
		table.Append([]string{
			string(rec.Room),
			string(rec.Owner),
			string(rec.RoomType),
			rec.CreatedAt.Format(time.RFC3339),
			rec.LastInteractionAt.Format("15:04:05"),
		})
	}
	printHeader("Ownership records")
	table.Render()
}

func loadSnapshot(db *badger.DB, key string, into any) bool {
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return cbor.Unmarshal(v, into)
		})
	})
	if err != nil {
		fmt.Printf("Error reading key %s: %v\n", key, err)
		return false
	}
	return true
}

func printHeader(title string) {
	fmt.Println()
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" " + title + " "))
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Log truncate required") {
			// Open once in write mode so Badger can truncate, then retry.
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
