package repositories

import (
	"context"
	"encoding/json"
	"fmt"
)

// Idempotency scopes
const (
	ScopeCheckout      = "checkout"
	ScopePurchaseOrder = "purchase_order"
)

// claimIdempotencyKey serialises requests carrying the same key and returns
// the stored response of an earlier success, if any. The advisory lock is
// held until the surrounding transaction ends.
func claimIdempotencyKey(ctx context.Context, tx DBTX, scope, key string, into any) (bool, error) {
	if key == "" {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, scope+":"+key); err != nil {
		return false, fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	var body []byte
	err := tx.QueryRow(ctx,
		`SELECT response_body FROM idempotency_keys WHERE scope=$1 AND key=$2`, scope, key).Scan(&body)
	if err != nil {
		if translateError(err) == ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return false, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return true, nil
}

func storeIdempotencyKey(ctx context.Context, tx DBTX, scope, key string, statusCode int, response any) error {
	if key == "" {
		return nil
	}
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO idempotency_keys(scope, key, status_code, response_body) VALUES($1, $2, $3, $4)`,
		scope, key, statusCode, json.RawMessage(body))
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}
