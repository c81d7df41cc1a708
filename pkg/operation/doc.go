/*
Package operation runs configured units of work against a document.

	+-----------+      +-----------+      +-------------+
	|   Queue   | ---> |  Batches  | ---> |  Processor  |
	| (ordered) |      | (by scope)|      | (activates) |
	+-----------+      +-----------+      +------+------+
	                                             |
	                                      +------+------+
	                                      |    Logs     |
	                                      +-------------+

🎯 Purpose:
- Hold enabled operations in the order they were registered
- Partition them into maximal runs of the same scope
- Execute each run with as few variant activations as possible

🔄 Flow:
1. A document batch runs each of its operations once, in order
2. A variant batch activates every variant once and runs all of its
   operations against it before moving on
3. Logs of variant operations are merged per operation across variants
4. Errors and panics escaping an operation become "<name> (FATAL ERROR)" logs

⚡ Guarantees:
- Activations per variant batch equal the number of variants
- A fatal operation is skipped for the remaining variants; its siblings keep running
- Nothing else in the program activates variants

🔍 Example:

	q := operation.NewQueue(purge, setValues, mapParameters)
	res, err := operation.NewProcessor(operation.ProcessorOptions{}).Process(ctx, doc, q, operation.ModePerBatch)
*/
package operation
