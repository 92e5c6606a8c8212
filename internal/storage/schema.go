package storage

const schema = `
-- The 'flashcards' table stores free-form two-sided cards and their SM-2 state.
CREATE TABLE IF NOT EXISTS flashcards (
    id TEXT PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_date DATETIME NOT NULL,
    last_reviewed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_flashcards_next_review ON flashcards(next_review_date);

-- The 'vocabulary' table is the learner's personal word list.
-- word_key is the normalized hash of the word, used to skip duplicates on import.
CREATE TABLE IF NOT EXISTS vocabulary (
    id TEXT PRIMARY KEY,
    word TEXT NOT NULL,
    word_key TEXT NOT NULL,
    reading TEXT NOT NULL,
    meaning TEXT NOT NULL,
    example_sentence TEXT NOT NULL DEFAULT '',
    added_at DATETIME NOT NULL,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_date DATETIME NOT NULL,
    last_reviewed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_next_review ON vocabulary(next_review_date);
CREATE INDEX IF NOT EXISTS idx_vocabulary_word_key ON vocabulary(word_key);
`
