package verificationRepository

const (
	queryUpsertReference = `
		INSERT INTO face_references (
			user_id,
			descriptor,
			sample_count,
			snapshot_url,
			created_at,
			updated_at
		) VALUES (
			:user_id,
			:descriptor,
			:sample_count,
			:snapshot_url,
			:created_at,
			:updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			descriptor = EXCLUDED.descriptor,
			sample_count = EXCLUDED.sample_count,
			snapshot_url = EXCLUDED.snapshot_url,
			updated_at = EXCLUDED.updated_at
	`

	queryGetReferenceByUserID = `
		SELECT
			user_id,
			descriptor,
			sample_count,
			snapshot_url,
			created_at,
			updated_at
		FROM face_references
		WHERE user_id = :user_id
	`

	queryDeleteReference = `
		DELETE FROM face_references
		WHERE user_id = :user_id
	`

	queryCreateAttempt = `
		INSERT INTO verification_attempts (
			id,
			user_id,
			purpose,
			verified,
			similarity,
			reason,
			quality_score,
			liveness_confidence,
			duration_ms,
			created_at
		) VALUES (
			:id,
			:user_id,
			:purpose,
			:verified,
			:similarity,
			:reason,
			:quality_score,
			:liveness_confidence,
			:duration_ms,
			:created_at
		)
	`

	queryGetAttemptsByUserID = `
		SELECT
			id,
			user_id,
			purpose,
			verified,
			similarity,
			reason,
			quality_score,
			liveness_confidence,
			duration_ms,
			created_at
		FROM verification_attempts
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit
	`
)
