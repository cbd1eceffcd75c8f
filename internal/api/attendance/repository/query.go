package attendanceRepository

const (
	queryCreateRecord = `
		INSERT INTO attendance_records (
			id,
			user_id,
			clock_in_at,
			clock_in_similarity,
			latitude,
			longitude,
			distance_meters,
			created_at,
			updated_at
		) VALUES (
			:id,
			:user_id,
			:clock_in_at,
			:clock_in_similarity,
			:latitude,
			:longitude,
			:distance_meters,
			:created_at,
			:updated_at
		)
	`

	queryGetOpenRecord = `
		SELECT
			id,
			user_id,
			clock_in_at,
			clock_out_at,
			clock_in_similarity,
			clock_out_similarity,
			latitude,
			longitude,
			distance_meters,
			created_at,
			updated_at
		FROM attendance_records
		WHERE user_id = :user_id AND clock_out_at IS NULL
	`

	queryCloseRecord = `
		UPDATE attendance_records
		SET
			clock_out_at = :clock_out_at,
			clock_out_similarity = :clock_out_similarity,
			updated_at = :updated_at
		WHERE id = :id AND clock_out_at IS NULL
	`

	queryGetRecordsByUserID = `
		SELECT
			id,
			user_id,
			clock_in_at,
			clock_out_at,
			clock_in_similarity,
			clock_out_similarity,
			latitude,
			longitude,
			distance_meters,
			created_at,
			updated_at
		FROM attendance_records
		WHERE user_id = :user_id
		ORDER BY clock_in_at DESC
		LIMIT :limit
	`
)
