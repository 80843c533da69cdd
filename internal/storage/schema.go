package storage

const Schema = `
-- Sites: one row per configured site, recreated on every full crawl
CREATE TABLE IF NOT EXISTS sites (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    status_time DATETIME NOT NULL,
    last_error TEXT NOT NULL DEFAULT ''
);

-- Pages: fetched documents, path is relative to the site root
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    code INTEGER NOT NULL,
    content TEXT NOT NULL,
    UNIQUE (site_id, path),
    FOREIGN KEY (site_id) REFERENCES sites(id) ON DELETE CASCADE
);

-- Lemmas: frequency is the total number of occurrences across the site
CREATE TABLE IF NOT EXISTS lemmas (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL,
    lemma TEXT NOT NULL,
    frequency INTEGER NOT NULL,
    UNIQUE (site_id, lemma),
    FOREIGN KEY (site_id) REFERENCES sites(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_lemmas_lemma ON lemmas(lemma);

-- Index entries: rank is the number of occurrences of the lemma in the page
CREATE TABLE IF NOT EXISTS index_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER NOT NULL,
    lemma_id INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    UNIQUE (page_id, lemma_id),
    FOREIGN KEY (page_id) REFERENCES pages(id) ON DELETE CASCADE,
    FOREIGN KEY (lemma_id) REFERENCES lemmas(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_index_entries_lemma ON index_entries(lemma_id, page_id);
`
