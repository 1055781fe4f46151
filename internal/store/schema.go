package store

const schema = `
CREATE TABLE IF NOT EXISTS generations (
    sequence INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS generation_backends (
    sequence INTEGER NOT NULL,
    position INTEGER NOT NULL,
    backend TEXT NOT NULL,
    PRIMARY KEY (sequence, backend),
    FOREIGN KEY (sequence) REFERENCES generations(sequence) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS generation_packages (
    sequence INTEGER NOT NULL,
    backend TEXT NOT NULL,
    position INTEGER NOT NULL,
    package TEXT NOT NULL,
    PRIMARY KEY (sequence, backend, position),
    FOREIGN KEY (sequence) REFERENCES generations(sequence) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_gen_backends_seq ON generation_backends(sequence);
CREATE INDEX IF NOT EXISTS idx_gen_packages_seq ON generation_packages(sequence, backend);
`
