/*
Package alnmerge merges coordinate-sorted streams of alignment records into a
single coordinate-sorted stream, holding at most one pending record per input.

Ordering

Records are ordered by Key, first by reference id and then by position.
Reference ids are compared as unsigned integers, so Unmapped (-1) sorts after
every real reference. Inputs must already be sorted; the merge never sorts
within a stream.

Merging

Merge reads one record from each Source, then repeatedly appends the least
pending record to the Sink and refills the slot it came from. Exact ties are
resolved in favour of the lowest source index. Failing sources are dropped
(or abort the merge when Options.Strict is set), cancellation of the context
stops the merge after the current record.

Table Format

Besides the merge engine, the package contains a compact on-disk container
for coordinate-sorted records. Record keys are packed into order-preserving
8-byte integers and must be appended in non-decreasing order.

A table contains a series of data blocks followed by an index and
a table footer.

    Table layout:
    +---------+---------+---------+-------------+--------------+
    | block 1 |   ...   | block n | block index | table footer |
    +---------+---------+---------+-------------+--------------+

    Block index:
    +---------------------------+--------------------+---------------------------------+--------------------------+--------+
    | max key block 1 (varint)  |  offset 1 (varint) | max key block 2 (varint,delta)  |  offset 2 (varint,delta) |   ...  |
    +---------------------------+--------------------+---------------------------------+--------------------------+--------+

    Table footer:
    +------------------------+------------------+
    | index offset (8 bytes) |  magic (8 bytes) |
    +------------------------+------------------+

A block comprises of a series of sections, followed by a section
index and a single-byte compression type indicator.

    Block layout:
    +-----------+---------+-----------+---------------+---------------------------+
    | section 1 |   ...   | section n | section index | compression type (1-byte) |
    +-----------+---------+-----------+---------------+---------------------------+

    Section index:
    +----------------------------+-------+----------------------------+-------------------------------+
    | section offset 2 (4 bytes) |  ...  | section offset n (4 bytes) |  number of sections (4 bytes) |
    +----------------------------+-------+----------------------------+-------------------------------+

A section is a series of key/record pairs where the first key is stored in full
while subsequent keys are delta encoded. Equal keys are stored with a zero delta.

    +----------------+-----------------------+-------------------+----------------------+-----------------------+-------------------+-------+
    | key 1 (varint) | record len 1 (varint) | record 1 (varlen) | key 2 (varint,delta) | record len 2 (varint) | record 2 (varlen) |  ...  |
    +----------------+-----------------------+-------------------+----------------------+-----------------------+-------------------+-------+
*/
package alnmerge
