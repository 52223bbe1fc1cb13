package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/user"
)

// Schema DDL is authored in MySQL form; the dialect rewriter translates it for
// SQLite. Tables are listed in dependency order so foreign keys resolve.
var tables = [...]string{
	`CREATE TABLE IF NOT EXISTS users (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  username VARCHAR(255) UNIQUE NOT NULL,
	  password_hash VARCHAR(255) NOT NULL,
	  role VARCHAR(50) NOT NULL DEFAULT 'admin',
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS schools (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  name VARCHAR(255) NOT NULL,
	  code VARCHAR(100) UNIQUE NOT NULL,
	  study_type VARCHAR(100) NOT NULL,
	  level VARCHAR(100) NOT NULL,
	  gender_type VARCHAR(50) NOT NULL,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS students (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  school_id INT NOT NULL,
	  full_name VARCHAR(255) NOT NULL,
	  student_code VARCHAR(100) UNIQUE NOT NULL,
	  grade VARCHAR(50) NOT NULL,
	  branch VARCHAR(100),
	  room VARCHAR(100) NOT NULL,
	  enrollment_date DATE,
	  parent_contact VARCHAR(255),
	  blood_type VARCHAR(10),
	  chronic_disease TEXT,
	  detailed_scores JSON,
	  daily_attendance JSON,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(school_id) REFERENCES schools(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  school_id INT NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  grade_level VARCHAR(50) NOT NULL,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(school_id) REFERENCES schools(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS grade_levels (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  school_id INT NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  display_order INT DEFAULT 0,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(school_id) REFERENCES schools(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  school_id INT NOT NULL,
	  full_name VARCHAR(255) NOT NULL,
	  phone VARCHAR(50),
	  email VARCHAR(255),
	  subject_id INT,
	  grade_level VARCHAR(100) NOT NULL,
	  specialization VARCHAR(255),
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(school_id) REFERENCES schools(id) ON DELETE CASCADE,
	  FOREIGN KEY(subject_id) REFERENCES subjects(id) ON DELETE SET NULL
	)`,
	// system-wide academic calendar, managed by administrators only
	`CREATE TABLE IF NOT EXISTS system_academic_years (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  name VARCHAR(50) NOT NULL UNIQUE,
	  start_year INT NOT NULL,
	  end_year INT NOT NULL,
	  start_date DATE,
	  end_date DATE,
	  is_current INT DEFAULT 0,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	// legacy per-school years; kept so old deployments keep their data
	`CREATE TABLE IF NOT EXISTS academic_years (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  school_id INT NOT NULL,
	  name VARCHAR(50) NOT NULL,
	  start_year INT NOT NULL,
	  end_year INT NOT NULL,
	  start_date DATE,
	  end_date DATE,
	  is_current INT DEFAULT 0,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(school_id) REFERENCES schools(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS student_grades (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  student_id INT NOT NULL,
	  academic_year_id INT NOT NULL,
	  subject_name VARCHAR(255) NOT NULL,
	  month1 INT DEFAULT 0,
	  month2 INT DEFAULT 0,
	  midterm INT DEFAULT 0,
	  month3 INT DEFAULT 0,
	  month4 INT DEFAULT 0,
	  final INT DEFAULT 0,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(student_id) REFERENCES students(id) ON DELETE CASCADE,
	  FOREIGN KEY(academic_year_id) REFERENCES system_academic_years(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS student_attendance (
	  id INT AUTO_INCREMENT PRIMARY KEY,
	  student_id INT NOT NULL,
	  academic_year_id INT NOT NULL,
	  attendance_date DATE NOT NULL,
	  status VARCHAR(20) NOT NULL DEFAULT 'present',
	  notes TEXT,
	  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  FOREIGN KEY(student_id) REFERENCES students(id) ON DELETE CASCADE,
	  FOREIGN KEY(academic_year_id) REFERENCES system_academic_years(id) ON DELETE CASCADE
	)`,
}

// Columns added after the students table first shipped. Running the ALTER on a
// schema that already has the column fails; that failure is expected and
// swallowed, which keeps Migrate idempotent without a version table.
var studentColumnAdds = [...]string{
	`ALTER TABLE students ADD COLUMN parent_contact VARCHAR(255)`,
	`ALTER TABLE students ADD COLUMN blood_type VARCHAR(10)`,
	`ALTER TABLE students ADD COLUMN chronic_disease TEXT`,
}

// Migrate brings the schema up to date and seeds the administrator account.
// Safe to run on every startup against an existing database.
func Migrate(ctx context.Context, db *DB, conf *core.Config) error {
	for _, ddl := range tables {
		if _, err := db.ExecContext(ctx, db.dialect.Rewrite(ddl)); err != nil {
			return errors.Wrap(err, "creating tables")
		}
	}

	for _, ddl := range studentColumnAdds {
		if _, err := db.ExecContext(ctx, db.dialect.Rewrite(ddl)); err != nil {
			if db.dialect.IsDuplicateColumn(err) {
				continue
			}
			return errors.Wrap(err, "adding student columns")
		}
	}

	if err := seedAdmin(ctx, db, conf); err != nil {
		return errors.Wrap(err, "seeding admin")
	}
	return nil
}

// seedAdmin guarantees the configured administrator exists with the admin
// role. A pre-existing row keeps its password; only the role is corrected.
func seedAdmin(ctx context.Context, db *DB, conf *core.Config) error {
	uname := conf.Database.AdminUsername

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE username = ?`, uname); err != nil {
		return err
	}
	if count == 0 {
		usr := user.User{Username: uname, Role: user.RoleAdmin}
		if err := usr.SetPassword(conf.Database.AdminPassword); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
			usr.Username, usr.PasswordHash, usr.Role)
		return err
	}

	_, err := db.ExecContext(ctx, `UPDATE users SET role = ? WHERE username = ?`, user.RoleAdmin, uname)
	return err
}
