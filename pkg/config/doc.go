/*
Package config loads variantrc profiles.

	            +-------------+
	            |   Profile   |
	            |   (queue)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Pick a parser by file extension and decode strictly (unknown fields fail)
- Apply defaults (policy "lenient", transaction "per-batch", enabled true)
- Check required fields of every settings block

🔄 Flow:
1. Read the profile file
2. Parse it with the registered parser for its extension
3. Validate and default
4. Hand the profile to the queue builder

Settings blocks are only checked for required fields here. Whether the queue
names a type with no block, or an unknown type, is decided by the queue
builder when it runs.

🔍 Example:

	profile, err := config.Load(ctx, "doors.yaml")
	if err != nil {
		return err
	}
	fmt.Println(profile)
*/
package config
