package postgres

const schema = `
CREATE TABLE IF NOT EXISTS flashcards (
    id UUID PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_date TIMESTAMPTZ NOT NULL,
    last_reviewed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_flashcards_next_review ON flashcards(next_review_date);

CREATE TABLE IF NOT EXISTS vocabulary (
    id UUID PRIMARY KEY,
    word TEXT NOT NULL,
    word_key TEXT NOT NULL,
    reading TEXT NOT NULL,
    meaning TEXT NOT NULL,
    example_sentence TEXT NOT NULL DEFAULT '',
    added_at TIMESTAMPTZ NOT NULL,
    ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_date TIMESTAMPTZ NOT NULL,
    last_reviewed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_next_review ON vocabulary(next_review_date);
CREATE INDEX IF NOT EXISTS idx_vocabulary_word_key ON vocabulary(word_key);
`
