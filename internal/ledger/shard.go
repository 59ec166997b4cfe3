package ledger

import (
	"fmt"
	"log"

	"rinha-payment-gateway/internal/config"
)

// OpenSelector opens this replica's own shard plus every peer shard it
// can reach. A create failure of one shard is logged and tolerated
// (that replica can still serve reads of the other shard); a failure
// of both shards is fatal.
func OpenSelector(cfg config.Config) (*Selector, error) {
	own, ownErr := openShard(cfg, "own", cfg.LedgerDSNLocal)
	peer, peerErr := openShard(cfg, "peer", cfg.LedgerDSNPeer)

	if ownErr != nil && peerErr != nil {
		return nil, fmt.Errorf("both shards failed to open: own=%v peer=%v", ownErr, peerErr)
	}

	sel := &Selector{}
	if ownErr != nil {
		log.Printf("LEDGER_SHARD_OPEN_FAILED shard=own dsn=%s err=%v — falling back to peer as the write target is unavailable; inserts will fail until restarted", cfg.LedgerDSNLocal, ownErr)
		// Own failed but peer didn't: reads of the peer shard can
		// still be served, but writing into a non-owned shard would
		// break the write-here/read-peer split. Surface the own shard
		// as unusable instead of silently writing into the peer's.
		sel.Own = Shard{Name: "own", Ledger: &unavailableLedger{cause: ownErr}}
	} else {
		sel.Own = *own
	}

	if peerErr != nil {
		log.Printf("LEDGER_SHARD_OPEN_FAILED shard=peer dsn=%s err=%v — summaries will only reflect this replica's own shard until the peer is reachable", cfg.LedgerDSNPeer, peerErr)
	} else {
		sel.Peers = []Shard{*peer}
	}

	return sel, nil
}

func openShard(cfg config.Config, name, dsn string) (*Shard, error) {
	l, err := Open(cfg.LedgerDriver, dsn)
	if err != nil {
		return nil, err
	}
	return &Shard{Name: name, Ledger: l}, nil
}

// Open dispatches to the configured ledger driver.
func Open(driver, dsn string) (Ledger, error) {
	switch driver {
	case "postgres":
		return OpenPostgres(dsn)
	case "sqlite", "":
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}
