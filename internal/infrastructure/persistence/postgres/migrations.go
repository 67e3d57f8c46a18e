// Package postgres implements the PostgreSQL persistence layer for the
// progress engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CONTENT TABLES
// Content is authored externally and read-only to the engine.
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create content tables
-- Version: 001

CREATE TABLE IF NOT EXISTS modules (
    id VARCHAR(100) PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lessons (
    id VARCHAR(100) PRIMARY KEY,
    module_id VARCHAR(100) NOT NULL REFERENCES modules(id),
    title VARCHAR(200) NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    xp_reward INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_xp_reward CHECK (xp_reward >= 0)
);

CREATE TABLE IF NOT EXISTS questions (
    id VARCHAR(100) PRIMARY KEY,
    lesson_id VARCHAR(100) NOT NULL REFERENCES lessons(id),
    position INTEGER NOT NULL DEFAULT 0,
    prompt TEXT NOT NULL,
    correct_answer TEXT NOT NULL,
    difficulty VARCHAR(10) NOT NULL DEFAULT 'easy',
    base_xp INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_difficulty CHECK (difficulty IN ('easy', 'medium', 'hard')),
    CONSTRAINT valid_base_xp CHECK (base_xp >= 0)
);

CREATE TABLE IF NOT EXISTS levels (
    number INTEGER PRIMARY KEY,
    title VARCHAR(100) NOT NULL DEFAULT '',
    min_xp INTEGER NOT NULL UNIQUE,

    CONSTRAINT valid_number CHECK (number >= 1),
    CONSTRAINT valid_min_xp CHECK (min_xp >= 0)
);

CREATE TABLE IF NOT EXISTS achievements (
    id VARCHAR(100) PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    emoji VARCHAR(10) NOT NULL DEFAULT '',
    condition_type VARCHAR(30) NOT NULL,
    condition_threshold INTEGER NOT NULL,
    xp_bonus INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_condition_type CHECK (condition_type IN (
        'xp_threshold', 'lessons_completed', 'questions_correct',
        'streak_days', 'level_reached')),
    CONSTRAINT valid_xp_bonus CHECK (xp_bonus >= 0)
);

CREATE INDEX IF NOT EXISTS idx_lessons_module ON lessons(module_id, position);
CREATE INDEX IF NOT EXISTS idx_questions_lesson ON questions(lesson_id, position);
`

const migration001Down = `
DROP TABLE IF EXISTS achievements;
DROP TABLE IF EXISTS levels;
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS modules;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LEARNER PROGRESS TABLES
// One aggregate row per learner plus per-lesson/per-question child rows.
// The uniqueness constraints back the at-most-once award guarantees.
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create learner progress tables
-- Version: 002

CREATE TABLE IF NOT EXISTS learner_progress (
    learner_id VARCHAR(100) PRIMARY KEY,
    total_xp INTEGER NOT NULL DEFAULT 0,
    current_level INTEGER NOT NULL DEFAULT 1,
    streak_count INTEGER NOT NULL DEFAULT 0,
    lessons_completed INTEGER NOT NULL DEFAULT 0,
    questions_correct INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (current_level >= 1),
    CONSTRAINT valid_streak CHECK (streak_count >= 0)
);

CREATE TABLE IF NOT EXISTS learner_lesson_progress (
    learner_id VARCHAR(100) NOT NULL REFERENCES learner_progress(learner_id),
    lesson_id VARCHAR(100) NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,

    PRIMARY KEY (learner_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS learner_question_progress (
    learner_id VARCHAR(100) NOT NULL REFERENCES learner_progress(learner_id),
    question_id VARCHAR(100) NOT NULL,
    best_correct BOOLEAN NOT NULL DEFAULT FALSE,
    attempts INTEGER NOT NULL DEFAULT 0,
    last_time_spent_seconds INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (learner_id, question_id),
    CONSTRAINT valid_attempts CHECK (attempts >= 0)
);

CREATE TABLE IF NOT EXISTS learner_achievements (
    learner_id VARCHAR(100) NOT NULL REFERENCES learner_progress(learner_id),
    achievement_id VARCHAR(100) NOT NULL,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (learner_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_lesson_progress_completed
    ON learner_lesson_progress(learner_id) WHERE completed;
CREATE INDEX IF NOT EXISTS idx_progress_last_activity
    ON learner_progress(last_activity_at) WHERE streak_count > 0;
`

const migration002Down = `
DROP TABLE IF EXISTS learner_achievements;
DROP TABLE IF EXISTS learner_question_progress;
DROP TABLE IF EXISTS learner_lesson_progress;
DROP TABLE IF EXISTS learner_progress;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_content_tables",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_learner_progress_tables",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
