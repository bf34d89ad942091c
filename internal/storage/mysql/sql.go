package mysql

// Rows keep the upstream order through `position`; `raw` holds the record
// exactly as it appears in the JSON snapshot, approval flag included.
const selectSnapshotSQL = `
SELECT raw
FROM review_snapshot
ORDER BY position, id
`

const deleteSnapshotSQL = `DELETE FROM review_snapshot`

const insertSnapshotPrefix = "INSERT INTO review_snapshot\n  (id, position, listing_name, approved, raw)\nVALUES "

const selectApprovedSQL = `
SELECT approved
FROM review_snapshot
WHERE id = ?
`
