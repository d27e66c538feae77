package postgres

const (
	listTables = `
		SELECT schemaname, tablename
		FROM pg_tables
		WHERE schemaname != 'information_schema' AND schemaname NOT LIKE 'pg_%'`

	// Composite and enum types; array types and domains are excluded.
	listTypes = `
		SELECT      n.nspname as schema, t.typname as type
		FROM        pg_type t
		LEFT JOIN   pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE       (t.typrelid = 0 OR (SELECT c.relkind = 'c' FROM pg_catalog.pg_class c WHERE c.oid = t.typrelid))
		AND     NOT EXISTS(SELECT 1 FROM pg_catalog.pg_type el WHERE el.oid = t.typelem AND el.typarray = t.oid)
		AND     t.typtype != 'd'
		AND     n.nspname != 'information_schema' AND n.nspname NOT LIKE 'pg_%'`

	listDomains = `
		SELECT      n.nspname as schema, t.typname as type
		FROM        pg_type t
		LEFT JOIN   pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE       t.typtype = 'd'
		AND     n.nspname != 'information_schema' AND n.nspname NOT LIKE 'pg_%'`

	listFunctions = `
		SELECT n.nspname as schema, p.proname as function
		FROM pg_proc p
		LEFT JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')`

	upsertDecodedEvent = `
		INSERT INTO events.decoded_events (chain, height, event_index, block_hash, kind, version, record_type, body, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (chain, height, event_index) DO UPDATE
		SET
			block_hash = EXCLUDED.block_hash,
			kind = EXCLUDED.kind,
			version = EXCLUDED.version,
			record_type = EXCLUDED.record_type,
			body = EXCLUDED.body,
			run_id = EXCLUDED.run_id,
			decoded_time = CURRENT_TIMESTAMP`

	// A later successful decode resolves an earlier quarantine entry.
	deleteResolvedFailure = `
		DELETE FROM events.decode_failures
		WHERE chain = $1 AND height = $2 AND event_index = $3`

	upsertDecodeFailure = `
		INSERT INTO events.decode_failures (chain, height, event_index, block_hash, kind, fingerprint, payload, class, error, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (chain, height, event_index) DO UPDATE
		SET
			block_hash = EXCLUDED.block_hash,
			kind = EXCLUDED.kind,
			fingerprint = EXCLUDED.fingerprint,
			payload = EXCLUDED.payload,
			class = EXCLUDED.class,
			error = EXCLUDED.error,
			run_id = EXCLUDED.run_id,
			failed_time = CURRENT_TIMESTAMP`

	upsertProcessedBlock = `
		INSERT INTO events.processed_blocks (chain, height, run_id, records, failures)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chain, height) DO UPDATE
		SET
			run_id = EXCLUDED.run_id,
			records = EXCLUDED.records,
			failures = EXCLUDED.failures,
			processed_time = CURRENT_TIMESTAMP`

	// First height at or after $2 that is not part of the contiguous
	// processed run starting at $2.
	firstUnprocessedHeight = `
		SELECT CASE
			WHEN NOT EXISTS (
				SELECT 1 FROM events.processed_blocks
				WHERE chain = $1 AND height = $2::bigint
			) THEN $2::bigint
			ELSE (
				SELECT min(p.height) + 1
				FROM events.processed_blocks p
				WHERE p.chain = $1 AND p.height >= $2::bigint
				AND NOT EXISTS (
					SELECT 1 FROM events.processed_blocks q
					WHERE q.chain = $1 AND q.height = p.height + 1
				)
			)
		END`

	countDecodedEvents = `
		SELECT count(*) FROM events.decoded_events WHERE chain = $1`

	countDecodeFailures = `
		SELECT count(*) FROM events.decode_failures WHERE chain = $1`
)
