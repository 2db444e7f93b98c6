package repository

// The mutable user columns shared by all three user projections, in the
// canonical bind order used everywhere below.
const (
	userDataColumns = `password_hash, security_stamp, two_factor_enabled, access_failed_count,
		lockout_enabled, lockout_end_date, phone_number, phone_number_confirmed, email_confirmed`

	userDataSet = `password_hash = ?, security_stamp = ?, two_factor_enabled = ?, access_failed_count = ?,
		lockout_enabled = ?, lockout_end_date = ?, phone_number = ?, phone_number_confirmed = ?, email_confirmed = ?`
)

// statements is the fixed catalog of CQL operations, one per (table, verb),
// built once per DB and shared by every call. The driver prepares each
// statement on first execution and caches the prepared handle per host, so a
// preparation failure surfaces on the failing call and does not poison later
// attempts.
type statements struct {
	insertUser string
	updateUser string
	deleteUser string
	selectUser string

	insertUserByUsername string
	updateUserByUsername string
	deleteUserByUsername string
	selectUserByUsername string

	insertUserByEmail string
	updateUserByEmail string
	deleteUserByEmail string
	selectUserByEmail string

	insertLogin        string
	deleteLogin        string
	selectLoginsByUser string

	insertLoginByProvider string
	deleteLoginByProvider string
	selectLoginByProvider string

	insertClaim        string
	deleteClaim        string
	selectClaimsByUser string

	insertRole string
	updateRole string
	deleteRole string
	selectRole string

	insertRoleByName string
	deleteRoleByName string
	selectRoleByName string
}

func newStatements() *statements {
	return &statements{
		insertUser: `INSERT INTO users (id, username, email, ` + userDataColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		updateUser: `UPDATE users SET username = ?, email = ?, ` + userDataSet + ` WHERE id = ?`,
		deleteUser: `DELETE FROM users WHERE id = ?`,
		selectUser: `SELECT id, username, email, ` + userDataColumns + ` FROM users WHERE id = ?`,

		insertUserByUsername: `INSERT INTO users_by_username (username, id, email, ` + userDataColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		updateUserByUsername: `UPDATE users_by_username SET email = ?, ` + userDataSet + ` WHERE username = ?`,
		deleteUserByUsername: `DELETE FROM users_by_username WHERE username = ?`,
		selectUserByUsername: `SELECT id, username, email, ` + userDataColumns + ` FROM users_by_username WHERE username = ?`,

		insertUserByEmail: `INSERT INTO users_by_email (email, id, username, ` + userDataColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		updateUserByEmail: `UPDATE users_by_email SET username = ?, ` + userDataSet + ` WHERE email = ?`,
		deleteUserByEmail: `DELETE FROM users_by_email WHERE email = ?`,
		selectUserByEmail: `SELECT id, username, email, ` + userDataColumns + ` FROM users_by_email WHERE email = ?`,

		insertLogin:        `INSERT INTO logins (id, login_provider, provider_key) VALUES (?, ?, ?)`,
		deleteLogin:        `DELETE FROM logins WHERE id = ? AND login_provider = ? AND provider_key = ?`,
		selectLoginsByUser: `SELECT id, login_provider, provider_key FROM logins WHERE id = ?`,

		insertLoginByProvider: `INSERT INTO logins_by_provider (login_provider, provider_key, id) VALUES (?, ?, ?)`,
		deleteLoginByProvider: `DELETE FROM logins_by_provider WHERE login_provider = ? AND provider_key = ?`,
		selectLoginByProvider: `SELECT id FROM logins_by_provider WHERE login_provider = ? AND provider_key = ?`,

		insertClaim:        `INSERT INTO claims (id, type, value) VALUES (?, ?, ?)`,
		deleteClaim:        `DELETE FROM claims WHERE id = ? AND type = ? AND value = ?`,
		selectClaimsByUser: `SELECT id, type, value FROM claims WHERE id = ?`,

		insertRole: `INSERT INTO roles (id, name) VALUES (?, ?)`,
		updateRole: `UPDATE roles SET name = ? WHERE id = ?`,
		deleteRole: `DELETE FROM roles WHERE id = ?`,
		selectRole: `SELECT id, name FROM roles WHERE id = ?`,

		insertRoleByName: `INSERT INTO roles_by_name (name, id) VALUES (?, ?)`,
		deleteRoleByName: `DELETE FROM roles_by_name WHERE name = ?`,
		selectRoleByName: `SELECT id, name FROM roles_by_name WHERE name = ?`,
	}
}
